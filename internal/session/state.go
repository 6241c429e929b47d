// Package session define el esquema de estado por sesión: los tokens
// del provider y los datos transitorios del login social. La persistencia
// real vive en la capa de cache (memory/redis).
package session

import "time"

// TokenState son las credenciales de sesión emitidas por el provider.
type TokenState struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewTokenState calcula el instante absoluto de expiración como
// issuedAt + ttl − skew. El margen hace que el refresh se dispare antes
// de que el token expire del lado del provider.
func NewTokenState(accessToken, refreshToken string, issuedAt time.Time, ttl, skew time.Duration) TokenState {
	return TokenState{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    issuedAt.Add(ttl - skew),
	}
}

// Valid reporta si el access token sigue siendo usable en el instante
// dado. Siempre instantes absolutos, nunca deltas de wall-clock, para
// sobrevivir reinicios del proceso.
func (t TokenState) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
