// Package token implementa el ciclo de vida de las credenciales de
// sesión: decide si el access token cacheado sigue usable y, si no,
// dispara el refresh contra el provider y reescribe el cache.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/janus/internal/metrics"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/provider"
	"github.com/dropDatabas3/janus/internal/session"
)

var (
	// ErrNoSession: el cache de tokens está vacío para esa sesión.
	ErrNoSession = session.ErrNoSession

	// ErrUnrecoverable: el refresh falló; el caller decide si fuerza
	// re-autenticación. El cache queda intacto.
	ErrUnrecoverable = errors.New("token: refresh failed, re-authentication required")
)

// Manager es el único componente que computa y compara expiraciones.
type Manager struct {
	sessions *session.Store
	client   provider.Client
	skew     time.Duration

	// now es inyectable para tests.
	now func() time.Time

	// group colapsa refreshes concurrentes de la misma sesión; cada
	// llamada individual sigue haciendo a lo sumo UN intento de refresh.
	group singleflight.Group
}

func NewManager(sessions *session.Store, client provider.Client, skew time.Duration) *Manager {
	if skew <= 0 {
		skew = 10 * time.Minute
	}
	return &Manager{
		sessions: sessions,
		client:   client,
		skew:     skew,
		now:      time.Now,
	}
}

// EnsureValidToken retorna un access token usable para la sesión,
// refrescando contra el provider si el cacheado ya expiró.
func (m *Manager) EnsureValidToken(ctx context.Context, sessionID string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("token"),
		logger.SessionID(sessionID),
	)

	state, err := m.sessions.GetToken(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("token: read cache: %w", err)
	}

	if state.Valid(m.now()) {
		return state.AccessToken, nil
	}

	v, err, _ := m.group.Do(sessionID, func() (any, error) {
		return m.refresh(ctx, log, sessionID, state.RefreshToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh hace un único intento contra el provider. Ante fallo el cache
// NO se limpia: el refresh token puede seguir siendo válido y borrarlo
// forzaría re-autenticación que le corresponde decidir al caller.
func (m *Manager) refresh(ctx context.Context, log *zap.Logger, sessionID, refreshToken string) (string, error) {
	start := m.now()
	renewed, err := m.client.RefreshToken(ctx, refreshToken)
	metrics.TokenRefreshLatency.Observe(float64(m.now().Sub(start).Milliseconds()))
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		log.Error("token refresh failed", logger.Err(err))
		return "", fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}

	state := session.NewTokenState(renewed.AccessToken, renewed.RefreshToken, m.now(), renewed.TTL, m.skew)
	if err := m.sessions.SetToken(ctx, sessionID, state); err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		log.Error("token cache write failed", logger.Err(err))
		return "", fmt.Errorf("token: write cache: %w", err)
	}

	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	log.Debug("access token refreshed", logger.Duration(state.ExpiresAt.Sub(m.now())))
	return renewed.AccessToken, nil
}
