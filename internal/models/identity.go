// Package models defines the data model shared by the patienthub core and
// its platform adapters.
package models

import "time"

// Identity is the authenticated user principal for a session. It is a
// read-only cached copy of what the auth backend knows; the core never
// mutates it.
type Identity struct {
	ID        string
	Email     string
	FullName  string
	CreatedAt time.Time
}

// Account is the persisted auth record backing an Identity. Salt and
// Verifier never leave the accounts layer.
type Account struct {
	ID        string
	Email     string
	FullName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}

// Identity returns the externally visible view of the account.
func (a *Account) Identity() *Identity {
	return &Identity{ID: a.ID, Email: a.Email, FullName: a.FullName, CreatedAt: a.CreatedAt}
}

// RefreshToken is a server-stored, rotating long-lived credential.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}

// TokenPair bundles a short-lived access token and a long-lived refresh
// token. The refresh token is what survives restarts and makes session
// restoration possible.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
