// Package resolver implementa el matching con ranking de confianza que
// decide qué cuenta local se vuelve el visitante: link previo, email
// verificado, email sin verificar (gateado por política) o cuenta nueva.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/validation"
)

// Product distingue el modo login-only del producto con registro
// completo. Se resuelve una vez por request desde configuración.
type Product int

const (
	ProductLoginOnly Product = iota
	ProductRegistration
)

// Policy es la política del host leída al momento de resolver.
type Policy struct {
	// StrictEmailVerification exige prueba de password para matches por
	// email sin verificar. Default del host: true.
	StrictEmailVerification bool
	Product                 Product
}

// Resolver turns an external profile into a local account decision.
type Resolver struct {
	links    core.LinkStore
	accounts core.AccountStore
	provider string
}

func New(links core.LinkStore, accounts core.AccountStore, providerName string) *Resolver {
	return &Resolver{links: links, accounts: accounts, provider: providerName}
}

// Una regla retorna (nil, nil) cuando no aplica; la primera que retorna
// outcome gana. El orden es fijo: cambiarlo cambia la semántica de
// seguridad del login.
type rule func(ctx context.Context, p *profile.Profile, pol Policy) (*Outcome, error)

// Resolve aplica las reglas en orden estricto de precedencia.
// "Sin match" no es un error (es ProvisionNew); Resolve falla solo si
// un store es inalcanzable, y en ese caso el intento entero se aborta.
func (r *Resolver) Resolve(ctx context.Context, p *profile.Profile, pol Policy) (Outcome, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("resolver"))

	rules := []rule{
		r.byIdentifier,
		r.byVerifiedEmail,
		r.byEmail,
	}
	for _, apply := range rules {
		out, err := apply(ctx, p, pol)
		if err != nil {
			return Outcome{}, err
		}
		if out != nil {
			log.Debug("profile resolved",
				logger.Outcome(out.Kind.String()),
				logger.AccountID(out.AccountID),
			)
			return *out, nil
		}
	}

	out := r.provisionNew(p)
	log.Debug("profile resolved", logger.Outcome(out.Kind.String()))
	return out, nil
}

// byIdentifier: primer hit en el linkage store gana, sin mirar emails.
func (r *Resolver) byIdentifier(ctx context.Context, p *profile.Profile, _ Policy) (*Outcome, error) {
	for _, externalID := range p.Identifiers() {
		accountID, err := r.links.Lookup(ctx, r.provider, externalID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolver: link lookup: %w", err)
		}
		logger.From(ctx).Info("visitor matched by identifier",
			logger.Component("resolver"),
			logger.ExternalID(externalID),
			logger.AccountID(accountID),
		)
		out := LinkedExisting(accountID)
		return &out, nil
	}
	return nil, nil
}

// byVerifiedEmail: el provider asegura ownership del email.
func (r *Resolver) byVerifiedEmail(ctx context.Context, p *profile.Profile, _ Policy) (*Outcome, error) {
	vemail := validation.NormalizeEmail(p.VerifiedEmail())
	if vemail == "" {
		return nil, nil
	}
	acc, err := r.accounts.FindByEmail(ctx, vemail)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolver: account lookup: %w", err)
	}
	logger.From(ctx).Debug("visitor matched by verified email",
		logger.Component("resolver"),
		logger.AccountID(acc.ID),
		logger.EmailMasked(vemail),
	)
	out := FoundByVerifiedEmail(acc.ID)
	return &out, nil
}

// byEmail: confianza mínima. Con política estricta, o contra la cuenta
// bootstrap, el match NO loguea: exige prueba de password. La cuenta
// bootstrap queda excluida del auto-link débil sin importar la política.
func (r *Resolver) byEmail(ctx context.Context, p *profile.Profile, pol Policy) (*Outcome, error) {
	email := validation.NormalizeEmail(p.Email())
	if email == "" {
		return nil, nil
	}
	acc, err := r.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolver: account lookup: %w", err)
	}
	bootstrap, err := r.accounts.IsBootstrap(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("resolver: bootstrap check: %w", err)
	}

	if !pol.StrictEmailVerification && !bootstrap {
		logger.From(ctx).Debug("visitor matched by unverified email",
			logger.Component("resolver"),
			logger.AccountID(acc.ID),
			logger.EmailMasked(email),
		)
		out := FoundByUnverifiedEmail(acc.ID)
		return &out, nil
	}

	logger.From(ctx).Info("unverified email match requires password proof",
		logger.Component("resolver"),
		logger.AccountID(acc.ID),
		logger.Bool("bootstrap", bootstrap),
	)
	out := RequiresPasswordProof(acc.ID)
	return &out, nil
}

// provisionNew arma el seed para la cuenta nueva. El display name cae
// al uuid del provider para que la cuenta siempre tenga nombre.
func (r *Resolver) provisionNew(p *profile.Profile) Outcome {
	email := validation.NormalizeEmail(p.VerifiedEmail())
	if email == "" {
		email = validation.NormalizeEmail(p.Email())
	}
	return ProvisionNew(core.AccountSeed{
		DisplayName:  p.DisplayName(),
		Email:        email,
		ProviderUUID: p.UUID(),
	})
}
