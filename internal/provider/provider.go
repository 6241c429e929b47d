// Package provider define el cliente hacia el identity provider externo.
// El flujo de autorización en browser queda fuera: este cliente solo
// consume el resultado del intercambio (token → perfil) y el endpoint
// de refresh.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/janus/internal/profile"
)

var (
	// ErrUnavailable: fallo de red/timeout/5xx hablando con el provider.
	// El intento de login se aborta sin compromiso de estado.
	ErrUnavailable = errors.New("provider: unavailable")

	// ErrRejected: el provider respondió pero rechazó la operación
	// (token inválido o expirado, credenciales mal configuradas).
	ErrRejected = errors.New("provider: request rejected")
)

// TokenRefresh es el resultado del endpoint de refresh del provider.
type TokenRefresh struct {
	AccessToken  string
	RefreshToken string
	TTL          time.Duration
}

// Client son las operaciones que el core consume del provider.
// Se construye una vez por proceso y se inyecta por referencia, lo que
// permite sustituir un doble de test.
type Client interface {
	// FetchProfileByToken intercambia un token de login por el perfil
	// de claims del visitante.
	FetchProfileByToken(ctx context.Context, token string) (*profile.Profile, error)

	// RefreshToken renueva las credenciales de sesión.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenRefresh, error)
}
