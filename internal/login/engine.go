// Package login orquesta un intento de login social: Resolver decide la
// cuenta, el finalizer persiste los links, limpia la sesión y emite el
// evento de perfil para los consumidores downstream.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/events"
	"github.com/dropDatabas3/janus/internal/metrics"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/provider"
	"github.com/dropDatabas3/janus/internal/resolver"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/core"
)

// Errores del flujo de login.
var (
	// ErrNoProfile: la sesión no tiene perfil stasheado y el caller no
	// pasó uno.
	ErrNoProfile = errors.New("login: no profile for this session")

	// ErrProviderUUIDMissing: el claim uuid es obligatorio.
	ErrProviderUUIDMissing = errors.New("login: profile has no provider uuid")
)

// PolicyFunc lee la política del host al momento de resolver.
type PolicyFunc func(ctx context.Context) resolver.Policy

// Result es la salida de un intento de login finalizado.
type Result struct {
	AccountID string
	// AwaitingProof indica que el visitante NO quedó logueado: debe
	// probar ownership con password antes de linkear.
	AwaitingProof bool
	Outcome       resolver.Kind
}

// Deps contiene las dependencias del engine.
type Deps struct {
	Resolver *resolver.Resolver
	Links    core.LinkStore
	Accounts core.AccountStore
	Sessions *session.Store
	Provider provider.Client
	Sink     events.Sink
	// ProviderName es la clave de provider en identity_link.
	ProviderName string
	Policy       PolicyFunc
}

// Engine expone las operaciones de frontera del core de login.
type Engine struct {
	resolver *resolver.Resolver
	links    core.LinkStore
	accounts core.AccountStore
	sessions *session.Store
	client   provider.Client
	sink     events.Sink
	provider string
	policy   PolicyFunc
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		resolver: d.Resolver,
		links:    d.Links,
		accounts: d.Accounts,
		sessions: d.Sessions,
		client:   d.Provider,
		sink:     d.Sink,
		provider: d.ProviderName,
		policy:   d.Policy,
	}
}

// ReceiveProfileToken intercambia el token del login por el perfil y lo
// stashea en la sesión para el intento en curso. Un fallo del provider
// aborta el intento completo y se loguea con severidad máxima.
func (e *Engine) ReceiveProfileToken(ctx context.Context, sessionID, token string) (*profile.Profile, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("login"), logger.SessionID(sessionID))

	p, err := e.client.FetchProfileByToken(ctx, token)
	if err != nil {
		// Detalle completo server-side; al visitante solo le llega un
		// mensaje genérico (lo decide el controller).
		log.Error("profile fetch failed", logger.Err(err))
		return nil, fmt.Errorf("login: fetch profile: %w", err)
	}
	if p.UUID() == "" {
		return nil, ErrProviderUUIDMissing
	}

	if err := e.sessions.StashProfile(ctx, sessionID, p); err != nil {
		return nil, fmt.Errorf("login: stash profile: %w", err)
	}

	e.publish(ctx, events.ProfileReceived, map[string]any{
		"identifiers": p.Identifiers(),
		"name":        p.DisplayName(),
	})
	log.Info("profile received", logger.Count(len(p.Identifiers())))
	return p, nil
}

// ResolveAndFinalizeLogin resuelve el perfil contra los stores y
// finaliza: linkea, limpia sesión y emite el evento. Si profile es nil
// se usa el stasheado en la sesión. Resolver → finalizer corren en
// secuencia dentro del intento; nada se comitea si un paso falla.
func (e *Engine) ResolveAndFinalizeLogin(ctx context.Context, sessionID string, p *profile.Profile) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.LoginValidateLatency.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if p == nil {
		stashed, err := e.sessions.Profile(ctx, sessionID)
		if err != nil {
			return Result{}, fmt.Errorf("login: load stashed profile: %w", err)
		}
		if stashed == nil {
			return Result{}, ErrNoProfile
		}
		p = stashed
	}

	outcome, err := e.resolver.Resolve(ctx, p, e.policy(ctx))
	if err != nil {
		return Result{}, err
	}
	metrics.LoginOutcomes.WithLabelValues(outcome.Kind.String()).Inc()

	return e.finalize(ctx, sessionID, outcome, p)
}

// LinkAfterProof fuerza el camino linked-existing después de que una
// verificación de password fuera de banda probó ownership de la cuenta.
func (e *Engine) LinkAfterProof(ctx context.Context, sessionID, accountID string, p *profile.Profile) (string, error) {
	if p == nil {
		stashed, err := e.sessions.Profile(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("login: load stashed profile: %w", err)
		}
		if stashed == nil {
			return "", ErrNoProfile
		}
		p = stashed
	}
	if _, err := e.accounts.FindByID(ctx, accountID); err != nil {
		return "", fmt.Errorf("login: account lookup: %w", err)
	}

	res, err := e.finalize(ctx, sessionID, resolver.FoundByVerifiedEmail(accountID), p)
	if err != nil {
		return "", err
	}
	return res.AccountID, nil
}

// HasProviderUUID reporta si la cuenta tiene linkeado un identifier con
// forma de uuid v4 del provider (marca de cuenta registrada vía provider,
// no solo social login).
func (e *Engine) HasProviderUUID(ctx context.Context, accountID string) (bool, error) {
	links, err := e.links.ListByAccount(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("login: list links: %w", err)
	}
	for _, l := range links {
		if id, err := uuid.Parse(l.ExternalID); err == nil && id.Version() == 4 {
			return true, nil
		}
	}
	return false, nil
}

// publish es fire-and-forget: el fallo se loguea y el login sigue.
func (e *Engine) publish(ctx context.Context, event string, payload any) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, event, payload); err != nil {
		logger.From(ctx).Warn("event publish failed",
			logger.Component("login"),
			logger.String("event", event),
			logger.Err(err),
		)
	}
}
