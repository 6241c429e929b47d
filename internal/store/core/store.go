package core

import "context"

// LinkStore is the durable mapping from (provider, external id) to a
// local account id. Mutated only by the login finalizer.
type LinkStore interface {
	// Lookup returns the account id linked to the pair, or ErrNotFound.
	Lookup(ctx context.Context, provider, externalID string) (string, error)

	// Insert links the pair to accountID. Idempotent: inserting an
	// existing pair with the same account id returns created=false and
	// no error. A pair already linked to a different account returns
	// ErrLinkConflict.
	Insert(ctx context.Context, provider, externalID, accountID string) (created bool, err error)

	// ListByAccount returns all links pointing at an account.
	ListByAccount(ctx context.Context, accountID string) ([]IdentityLink, error)
}

// AccountStore is the host application's account storage, consumed as
// an external collaborator.
type AccountStore interface {
	// FindByEmail returns the account with that email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByID returns the account, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Account, error)

	// Create provisions a new active account from a seed. Uniqueness
	// violations (email, display name) surface as ErrConflict.
	Create(ctx context.Context, seed AccountSeed) (*Account, error)

	// IsBootstrap reports whether the account is the host's first,
	// highest-privilege account. Bootstrap accounts are exempt from
	// weak-trust auto-linking.
	IsBootstrap(ctx context.Context, id string) (bool, error)
}
