package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents an authenticated identity.
//
// Every marketplace call is made on behalf of an account; the account ID is
// the opaque identity reference carried in JWT claims. Posting a job needs
// nothing beyond an account; working on jobs additionally requires a Worker
// record (see Worker).
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Email is the account's email address (unique). Used for login.
	Email string

	// DisplayName is the human-readable name of the account holder.
	DisplayName string

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last account change.
	UpdatedAt int64
}

// NewAccount creates an account with a fresh UUID and timestamps.
func NewAccount(email, displayName, passwordHash string) *Account {
	now := time.Now().Unix()
	return &Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
