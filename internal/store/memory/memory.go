// Package memory provee stores en memoria para desarrollo y testing.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/janus/internal/store/core"
)

// Store implementa core.LinkStore y core.AccountStore sobre maps.
type Store struct {
	mu       sync.RWMutex
	links    map[string]core.IdentityLink // key: provider + "\x00" + externalID
	accounts map[string]*core.Account     // key: id
	byEmail  map[string]string            // lower(email) -> id
}

func New() *Store {
	return &Store{
		links:    make(map[string]core.IdentityLink),
		accounts: make(map[string]*core.Account),
		byEmail:  make(map[string]string),
	}
}

func linkKey(provider, externalID string) string {
	return provider + "\x00" + externalID
}

// ─── core.LinkStore ───

func (s *Store) Lookup(ctx context.Context, provider, externalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[linkKey(provider, externalID)]
	if !ok {
		return "", core.ErrNotFound
	}
	return l.AccountID, nil
}

func (s *Store) Insert(ctx context.Context, provider, externalID, accountID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := linkKey(provider, externalID)
	if existing, ok := s.links[key]; ok {
		if existing.AccountID != accountID {
			return false, core.ErrLinkConflict
		}
		return false, nil
	}
	s.links[key] = core.IdentityLink{
		Provider:   provider,
		ExternalID: externalID,
		AccountID:  accountID,
		CreatedAt:  time.Now().UTC(),
	}
	return true, nil
}

func (s *Store) ListByAccount(ctx context.Context, accountID string) ([]core.IdentityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.IdentityLink
	for _, l := range s.links {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ─── core.AccountStore ───

func (s *Store) FindByEmail(ctx context.Context, email string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, core.ErrNotFound
	}
	acc := *s.accounts[id]
	return &acc, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *Store) Create(ctx context.Context, seed core.AccountSeed) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seed.Email != "" {
		if _, taken := s.byEmail[strings.ToLower(seed.Email)]; taken {
			return nil, fmt.Errorf("%w: email taken", core.ErrConflict)
		}
	}
	for _, acc := range s.accounts {
		if acc.DisplayName == seed.DisplayName {
			return nil, fmt.Errorf("%w: display name taken", core.ErrConflict)
		}
	}
	acc := &core.Account{
		ID:          uuid.NewString(),
		Email:       seed.Email,
		DisplayName: seed.DisplayName,
		Init:        seed.ProviderUUID,
		Status:      "active",
		CreatedAt:   time.Now().UTC(),
	}
	s.accounts[acc.ID] = acc
	if acc.Email != "" {
		s.byEmail[strings.ToLower(acc.Email)] = acc.ID
	}
	cp := *acc
	return &cp, nil
}

func (s *Store) IsBootstrap(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return false, core.ErrNotFound
	}
	return acc.Bootstrap, nil
}

// Seed inserta una cuenta preexistente (fixture de tests / bootstrap dev).
func (s *Store) Seed(acc core.Account) *core.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.Status == "" {
		acc.Status = "active"
	}
	cp := acc
	s.accounts[acc.ID] = &cp
	if acc.Email != "" {
		s.byEmail[strings.ToLower(acc.Email)] = acc.ID
	}
	return &acc
}
