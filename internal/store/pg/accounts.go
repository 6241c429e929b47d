package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/janus/internal/store/core"
)

// accountStore implementa core.AccountStore.
type accountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore crea el store de cuentas.
func NewAccountStore(pool *pgxpool.Pool) core.AccountStore {
	return &accountStore{pool: pool}
}

const accountColumns = `id, email, display_name, email_verified, init, status, bootstrap, created_at`

func (s *accountStore) FindByEmail(ctx context.Context, email string) (*core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE lower(email) = lower($1) LIMIT 1`
	return s.scanOne(s.pool.QueryRow(ctx, query, email))
}

func (s *accountStore) FindByID(ctx context.Context, id string) (*core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, id))
}

func (s *accountStore) Create(ctx context.Context, seed core.AccountSeed) (*core.Account, error) {
	query := `
		INSERT INTO account (id, email, display_name, email_verified, init, status, bootstrap, created_at)
		VALUES ($1, NULLIF($2, ''), $3, false, $4, 'active', false, NOW())
		RETURNING ` + accountColumns
	id := uuid.NewString()
	acc, err := s.scanOne(s.pool.QueryRow(ctx, query, id, seed.Email, seed.DisplayName, seed.ProviderUUID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// unique_violation en email o display_name
			return nil, fmt.Errorf("%w: %s", core.ErrConflict, pgErr.ConstraintName)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	if seed.PasswordHash != "" {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO account_credential (account_id, password_hash, created_at) VALUES ($1, $2, NOW())`,
			acc.ID, seed.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("create account credential: %w", err)
		}
	}
	return acc, nil
}

func (s *accountStore) IsBootstrap(ctx context.Context, id string) (bool, error) {
	const query = `SELECT bootstrap FROM account WHERE id = $1`
	var bootstrap bool
	err := s.pool.QueryRow(ctx, query, id).Scan(&bootstrap)
	if err == pgx.ErrNoRows {
		return false, core.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("is bootstrap: %w", err)
	}
	return bootstrap, nil
}

func (s *accountStore) scanOne(row pgx.Row) (*core.Account, error) {
	var a core.Account
	var email, init *string
	err := row.Scan(&a.ID, &email, &a.DisplayName, &a.EmailVerified, &init, &a.Status, &a.Bootstrap, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if email != nil {
		a.Email = *email
	}
	if init != nil {
		a.Init = *init
	}
	return &a, nil
}
