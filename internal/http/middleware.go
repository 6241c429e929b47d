package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/observability/logger"
)

// withRequestLogger inyecta un logger scoped con request id en el
// contexto y loguea el request al terminar.
func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		log := logger.L().With(
			logger.String("request_id", reqID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
		)
		ctx := logger.ToContext(r.Context(), log)
		next.ServeHTTP(w, r.WithContext(ctx))
		log.Debug("request served", logger.Duration(time.Since(start)))
	})
}

// withRecover evita que un panic tumbe el proceso.
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic in handler", logger.Any("panic", rec))
				WriteError(w, ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sessionID extrae el id de sesión del request. La maquinaria real de
// sesión/cookies es del host; acá solo se transporta el id.
func sessionID(r *http.Request) string {
	if v := r.Header.Get("X-Session-ID"); v != "" {
		return v
	}
	if c, err := r.Cookie("janus_sid"); err == nil {
		return c.Value
	}
	return ""
}
