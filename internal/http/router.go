package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter arma el router con las operaciones de frontera del core.
func NewRouter(sessions *SessionController) http.Handler {
	r := chi.NewRouter()
	r.Use(withRecover)
	r.Use(withRequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/session", func(r chi.Router) {
		r.Post("/profile", sessions.PostProfile)
		r.Post("/login", sessions.PostLogin)
		r.Post("/link-after-proof", sessions.PostLinkAfterProof)
		r.Get("/token", sessions.GetToken)
		r.Post("/token", sessions.GetToken) // compat: el widget original postea
		r.Post("/logout", sessions.PostLogout)
	})

	return r
}
