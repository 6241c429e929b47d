package core

import "time"

// Account is the host application's view of a local user account.
type Account struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
	// Init carries the provider uuid the account was provisioned from,
	// empty for accounts created outside social login.
	Init      string
	Status    string // active | disabled
	Bootstrap bool
	CreatedAt time.Time
}

// AccountSeed is the minimal data needed to provision a new account
// from a social profile.
type AccountSeed struct {
	DisplayName  string
	Email        string
	ProviderUUID string
	PasswordHash string
}

// IdentityLink maps one (provider, external id) pair to a local account.
// Links are append-only: a pair is never re-pointed at a different account.
type IdentityLink struct {
	Provider   string
	ExternalID string
	AccountID  string
	CreatedAt  time.Time
}
