// Package ledger defines the custody vocabulary for the marketplace:
// account funding, escrow errors and payout shapes.
//
// The custody tables live in the same SQLite database as the marketplace
// entities (see internal/storage/sqlite), so escrowing a job's payment and
// releasing it commit in the same transaction as the job state they belong
// to. This package carries the parts of custody that other layers speak
// about: the sentinel errors and the funding interface.
package ledger

import (
	"context"
	"errors"
)

var (
	ErrNoAccount         = errors.New("ledger: account does not exist")
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	ErrEscrowExists      = errors.New("ledger: escrow already exists for job")
	ErrEscrowNotFound    = errors.New("ledger: no escrow for job")
	ErrAlreadyReleased   = errors.New("ledger: escrow already released")
	ErrAmountMismatch    = errors.New("ledger: payouts do not match escrowed amount")
)

// Payout names one recipient of an escrow release and the amount it
// receives. Amounts are int64 minor units.
type Payout struct {
	Account string
	Amount  int64
}

// Ledger is the account funding interface used by the transport layer.
// Escrow and release are not free-standing operations: they happen inside
// the store transactions that create and settle jobs.
type Ledger interface {
	// Deposit credits an account, creating it if needed. Amount must be
	// positive.
	Deposit(ctx context.Context, account string, amount int64) error

	// Balance returns an account's available funds. Returns ErrNoAccount
	// for an unknown account.
	Balance(ctx context.Context, account string) (int64, error)
}
