package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/janus/internal/store/core"
)

// linkStore implementa core.LinkStore.
type linkStore struct {
	pool *pgxpool.Pool
}

// NewLinkStore crea el store de identity links.
func NewLinkStore(pool *pgxpool.Pool) core.LinkStore {
	return &linkStore{pool: pool}
}

func (s *linkStore) Lookup(ctx context.Context, provider, externalID string) (string, error) {
	const query = `SELECT account_id FROM identity_link WHERE provider = $1 AND external_id = $2`
	var accountID string
	err := s.pool.QueryRow(ctx, query, provider, externalID).Scan(&accountID)
	if err == pgx.ErrNoRows {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup link: %w", err)
	}
	return accountID, nil
}

// Insert se apoya en el UNIQUE (provider, external_id) de la tabla:
// de dos escritores concurrentes para el mismo par, el que pierde ve
// el link existente en el re-chequeo en lugar de pisarlo.
func (s *linkStore) Insert(ctx context.Context, provider, externalID, accountID string) (bool, error) {
	const query = `
		INSERT INTO identity_link (provider, external_id, account_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (provider, external_id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query, provider, externalID, accountID)
	if err != nil {
		return false, fmt.Errorf("insert link: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// El par ya existe: idempotente si apunta a la misma cuenta,
	// violación de integridad si apunta a otra.
	existing, err := s.Lookup(ctx, provider, externalID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Insertado y borrado entre medio; tratarlo como conflicto
			// para que el caller reintente explícitamente.
			return false, core.ErrLinkConflict
		}
		return false, err
	}
	if existing != accountID {
		return false, core.ErrLinkConflict
	}
	return false, nil
}

func (s *linkStore) ListByAccount(ctx context.Context, accountID string) ([]core.IdentityLink, error) {
	const query = `
		SELECT provider, external_id, account_id, created_at
		FROM identity_link WHERE account_id = $1
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []core.IdentityLink
	for rows.Next() {
		var l core.IdentityLink
		if err := rows.Scan(&l.Provider, &l.ExternalID, &l.AccountID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
