// Package http expone las operaciones de frontera del core por HTTP.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/janus/internal/login"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/provider"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/token"
)

// SessionController atiende los endpoints de login social y tokens.
type SessionController struct {
	engine   *login.Engine
	tokens   *token.Manager
	sessions *session.Store
}

func NewSessionController(engine *login.Engine, tokens *token.Manager, sessions *session.Store) *SessionController {
	return &SessionController{engine: engine, tokens: tokens, sessions: sessions}
}

// PostProfile maneja POST /v1/session/profile: intercambia el token del
// login por el perfil y lo stashea en la sesión.
func (c *SessionController) PostProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PostProfile"))

	sid := sessionID(r)
	if sid == "" {
		WriteError(w, ErrBadRequest.WithDetail("missing session id"))
		return
	}
	var req ProfileTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		WriteError(w, ErrBadRequest.WithDetail("token is required"))
		return
	}

	p, err := c.engine.ReceiveProfileToken(ctx, sid, req.Token)
	if err != nil {
		// El detalle ya quedó en el log del engine; al visitante solo
		// el mensaje genérico.
		log.Warn("profile intake failed", logger.Err(err))
		WriteError(w, ErrLoginFailed)
		return
	}

	WriteJSON(w, http.StatusOK, ProfileTokenResponse{
		Identifiers: len(p.Identifiers()),
		Name:        p.DisplayName(),
	})
}

// PostLogin maneja POST /v1/session/login: resuelve el perfil stasheado
// y finaliza el login.
func (c *SessionController) PostLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PostLogin"))

	sid := sessionID(r)
	if sid == "" {
		WriteError(w, ErrBadRequest.WithDetail("missing session id"))
		return
	}

	res, err := c.engine.ResolveAndFinalizeLogin(ctx, sid, nil)
	if err != nil {
		c.writeLoginError(w, log, err)
		return
	}
	if res.AwaitingProof {
		WriteJSON(w, http.StatusAccepted, LoginResponse{
			AccountID:     res.AccountID,
			AwaitingProof: true,
			Outcome:       res.Outcome.String(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, LoginResponse{
		AccountID: res.AccountID,
		Outcome:   res.Outcome.String(),
	})
}

// PostLinkAfterProof maneja POST /v1/session/link-after-proof: fuerza el
// link una vez que la verificación de password (fuera de banda) pasó.
func (c *SessionController) PostLinkAfterProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PostLinkAfterProof"))

	sid := sessionID(r)
	if sid == "" {
		WriteError(w, ErrBadRequest.WithDetail("missing session id"))
		return
	}
	var req LinkAfterProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		WriteError(w, ErrBadRequest.WithDetail("account_id is required"))
		return
	}

	accountID, err := c.engine.LinkAfterProof(ctx, sid, req.AccountID, nil)
	if err != nil {
		c.writeLoginError(w, log, err)
		return
	}
	WriteJSON(w, http.StatusOK, LoginResponse{AccountID: accountID, Outcome: "linked_existing"})
}

// GetToken maneja GET /v1/session/token: retorna el access token
// vigente, refrescando si hace falta.
func (c *SessionController) GetToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GetToken"))

	sid := sessionID(r)
	if sid == "" {
		WriteError(w, ErrBadRequest.WithDetail("missing session id"))
		return
	}

	accessToken, err := c.tokens.EnsureValidToken(ctx, sid)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrNoSession):
			WriteError(w, ErrNoSession)
		case errors.Is(err, token.ErrUnrecoverable):
			WriteError(w, ErrReauthRequired)
		default:
			log.Error("token lookup failed", logger.Err(err))
			WriteError(w, ErrInternal)
		}
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: accessToken})
}

// PostLogout maneja POST /v1/session/logout: destruye todo el estado de
// la sesión, tokens incluidos.
func (c *SessionController) PostLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)
	if sid == "" {
		WriteError(w, ErrBadRequest.WithDetail("missing session id"))
		return
	}
	if err := c.sessions.Destroy(ctx, sid); err != nil {
		logger.From(ctx).Error("session destroy failed", logger.Err(err))
		WriteError(w, ErrInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *SessionController) writeLoginError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, login.ErrNoProfile):
		WriteError(w, ErrBadRequest.WithDetail("no social profile in session"))
	case errors.Is(err, core.ErrConflict):
		// ValidationFailure: el visitante puede corregir y reintentar
		// por el flujo de registro.
		WriteError(w, ErrValidationFailed.WithDetail(err.Error()))
	case errors.Is(err, core.ErrLinkConflict):
		log.Error("identity link integrity violation", logger.Err(err))
		WriteError(w, ErrInternal)
	case errors.Is(err, provider.ErrUnavailable), errors.Is(err, provider.ErrRejected):
		log.Error("provider failure during login", logger.Err(err))
		WriteError(w, ErrLoginFailed)
	default:
		log.Error("login failed", logger.Err(err))
		WriteError(w, ErrInternal)
	}
}
