package login

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/janus/internal/audit"
	"github.com/dropDatabas3/janus/internal/events"
	"github.com/dropDatabas3/janus/internal/metrics"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/resolver"
	"github.com/dropDatabas3/janus/internal/store/core"
)

// finalize ejecuta el lado de escritura de un outcome ya resuelto.
func (e *Engine) finalize(ctx context.Context, sessionID string, outcome resolver.Outcome, p *profile.Profile) (Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("login.finalizer"))

	switch outcome.Kind {
	case resolver.KindLinkedExisting:
		// Ya hay link, no hay nada que escribir.
		return e.finish(ctx, sessionID, outcome.AccountID, outcome.Kind, p)

	case resolver.KindFoundByVerifiedEmail, resolver.KindFoundByUnverifiedEmail:
		if err := e.linkIdentifiers(ctx, sessionID, outcome.AccountID, p); err != nil {
			return Result{}, err
		}
		return e.finish(ctx, sessionID, outcome.AccountID, outcome.Kind, p)

	case resolver.KindRequiresPasswordProof:
		// NO loguea al visitante y NO escribe links: la sesión queda
		// intacta para que el paso de prueba de password la retome.
		log.Info("login held for password proof", logger.AccountID(outcome.AccountID))
		return Result{
			AccountID:     outcome.AccountID,
			AwaitingProof: true,
			Outcome:       outcome.Kind,
		}, nil

	case resolver.KindProvisionNew:
		return e.provision(ctx, sessionID, outcome.Seed, p)

	default:
		return Result{}, fmt.Errorf("login: unknown outcome %d", outcome.Kind)
	}
}

// provision crea la cuenta nueva y la linkea. Un rechazo del store
// (unicidad de email/display name) se surface tal cual y no se linkea
// nada: el visitante reintenta por el flujo de registro.
func (e *Engine) provision(ctx context.Context, sessionID string, seed core.AccountSeed, p *profile.Profile) (Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("login.finalizer"))

	hash, err := randomPasswordHash()
	if err != nil {
		return Result{}, fmt.Errorf("login: generate password: %w", err)
	}
	seed.PasswordHash = hash

	acc, err := e.accounts.Create(ctx, seed)
	if err != nil {
		log.Error("account provisioning failed",
			logger.EmailMasked(seed.Email),
			logger.Err(err),
		)
		return Result{}, fmt.Errorf("login: create account: %w", err)
	}
	log.Info("account provisioned",
		logger.AccountID(acc.ID),
		logger.String("display_name", acc.DisplayName),
	)

	if err := e.linkIdentifiers(ctx, sessionID, acc.ID, p); err != nil {
		return Result{}, err
	}
	return e.finish(ctx, sessionID, acc.ID, resolver.KindProvisionNew, p)
}

// linkIdentifiers asegura el link de cada identifier del intento contra
// la cuenta. En modo login-only manda el stash de la sesión; en el
// producto de registro mandan los identifiers del perfil.
func (e *Engine) linkIdentifiers(ctx context.Context, sessionID, accountID string, p *profile.Profile) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("login.finalizer"))

	identifiers := p.Identifiers()
	if e.policy(ctx).Product == resolver.ProductLoginOnly {
		if stashed, err := e.sessions.Identifiers(ctx, sessionID); err == nil && len(stashed) > 0 {
			identifiers = stashed
		}
	}

	for _, externalID := range identifiers {
		created, err := e.links.Insert(ctx, e.provider, externalID, accountID)
		if err != nil {
			if errors.Is(err, core.ErrLinkConflict) {
				metrics.LinkInserts.WithLabelValues("conflict").Inc()
			}
			// Violación de integridad o store caído: fatal para el
			// intento, nunca se pisa un link existente.
			log.Error("identity link insert failed",
				logger.ExternalID(externalID),
				logger.AccountID(accountID),
				logger.Err(err),
			)
			return fmt.Errorf("login: link %s: %w", externalID, err)
		}
		if created {
			metrics.LinkInserts.WithLabelValues("linked").Inc()
			audit.Record(ctx, "identity.linked", map[string]any{
				"provider":    e.provider,
				"external_id": externalID,
				"account_id":  accountID,
			})
			log.Info("identifier linked",
				logger.ExternalID(externalID),
				logger.AccountID(accountID),
			)
		} else {
			metrics.LinkInserts.WithLabelValues("already_linked").Inc()
			log.Debug("identifier already linked",
				logger.ExternalID(externalID),
				logger.AccountID(accountID),
			)
		}
	}
	return nil
}

// finish limpia el estado transitorio de la sesión (el token cache
// tiene ciclo de vida propio y no se toca) y notifica downstream.
func (e *Engine) finish(ctx context.Context, sessionID, accountID string, kind resolver.Kind, p *profile.Profile) (Result, error) {
	if err := e.sessions.ClearTransient(ctx, sessionID); err != nil {
		logger.From(ctx).Warn("transient session cleanup failed",
			logger.Component("login.finalizer"),
			logger.SessionID(sessionID),
			logger.Err(err),
		)
	}

	e.publish(ctx, events.ProfileLinked, map[string]any{
		"account_id": accountID,
		"profile":    string(p.JSON()),
	})

	logger.From(ctx).Info("login finalized",
		logger.Component("login.finalizer"),
		logger.AccountID(accountID),
		logger.Outcome(kind.String()),
	)
	return Result{AccountID: accountID, Outcome: kind}, nil
}

// randomPasswordHash genera el password placeholder de cuentas
// provisionadas. El provider es autoritativo: el password local nunca
// se le muestra al visitante.
func randomPasswordHash() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawURLEncoding.EncodeToString(b)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
