package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/profile"
)

// ErrNoSession indica que la sesión no tiene estado de tokens.
var ErrNoSession = errors.New("session: no token state")

// Store persiste TokenState y el stash transitorio del login social,
// keyed por session id, sobre un cache.Client.
type Store struct {
	cache        cache.Client
	transientTTL time.Duration
	tokenTTL     time.Duration // 0 = sin expiración; se limpia en logout
}

func NewStore(c cache.Client, transientTTL, tokenTTL time.Duration) *Store {
	return &Store{cache: c, transientTTL: transientTTL, tokenTTL: tokenTTL}
}

func tokenKey(sessionID string) string   { return "sess:" + sessionID + ":token" }
func profileKey(sessionID string) string { return "sess:" + sessionID + ":profile" }
func identsKey(sessionID string) string  { return "sess:" + sessionID + ":identifiers" }
func nameKey(sessionID string) string    { return "sess:" + sessionID + ":name" }

// ─── Token cache ───

// GetToken lee el TokenState de la sesión. ErrNoSession si no hay.
func (s *Store) GetToken(ctx context.Context, sessionID string) (*TokenState, error) {
	raw, err := s.cache.Get(ctx, tokenKey(sessionID))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("session: get token: %w", err)
	}
	var st TokenState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("session: decode token state: %w", err)
	}
	return &st, nil
}

// SetToken escribe el TokenState de la sesión.
func (s *Store) SetToken(ctx context.Context, sessionID string, st TokenState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: encode token state: %w", err)
	}
	if err := s.cache.Set(ctx, tokenKey(sessionID), string(b), s.tokenTTL); err != nil {
		return fmt.Errorf("session: set token: %w", err)
	}
	return nil
}

// ClearToken destruye las credenciales de la sesión (logout explícito).
func (s *Store) ClearToken(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, tokenKey(sessionID))
}

// ─── Stash transitorio del login ───

// StashProfile guarda perfil, identifiers y nombre para el intento de
// login en curso.
func (s *Store) StashProfile(ctx context.Context, sessionID string, p *profile.Profile) error {
	idents, err := json.Marshal(p.Identifiers())
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, profileKey(sessionID), string(p.JSON()), s.transientTTL); err != nil {
		return fmt.Errorf("session: stash profile: %w", err)
	}
	if err := s.cache.Set(ctx, identsKey(sessionID), string(idents), s.transientTTL); err != nil {
		return fmt.Errorf("session: stash identifiers: %w", err)
	}
	if err := s.cache.Set(ctx, nameKey(sessionID), p.DisplayName(), s.transientTTL); err != nil {
		return fmt.Errorf("session: stash name: %w", err)
	}
	return nil
}

// Profile recupera el perfil stasheado, o nil si no hay.
func (s *Store) Profile(ctx context.Context, sessionID string) (*profile.Profile, error) {
	raw, err := s.cache.Get(ctx, profileKey(sessionID))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return profile.FromJSON([]byte(raw))
}

// Identifiers recupera los identifiers stasheados de la sesión.
func (s *Store) Identifiers(ctx context.Context, sessionID string) ([]string, error) {
	raw, err := s.cache.Get(ctx, identsKey(sessionID))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("session: decode identifiers: %w", err)
	}
	return out, nil
}

// ClearTransient borra los datos transitorios del login. NO toca el
// TokenState: su ciclo de vida es independiente.
func (s *Store) ClearTransient(ctx context.Context, sessionID string) error {
	for _, key := range []string{profileKey(sessionID), identsKey(sessionID), nameKey(sessionID)} {
		if err := s.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("session: clear transient: %w", err)
		}
	}
	return nil
}

// Destroy borra todo el estado de la sesión, tokens incluidos.
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	if err := s.ClearTransient(ctx, sessionID); err != nil {
		return err
	}
	return s.ClearToken(ctx, sessionID)
}
