package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskbay/taskbay/internal/ledger"
)

// Ensure SQLiteStore implements the funding interface
var _ ledger.Ledger = (*SQLiteStore)(nil)

// Deposit credits an account, creating it if needed.
func (s *SQLiteStore) Deposit(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive, got %d", amount)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (account, amount) VALUES (?, ?)
		 ON CONFLICT(account) DO UPDATE SET amount = amount + ?`,
		account, amount, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to deposit: %w", err)
	}
	return nil
}

// Balance returns an account's available funds.
func (s *SQLiteStore) Balance(ctx context.Context, account string) (int64, error) {
	var amount int64
	err := s.db.QueryRowContext(ctx,
		"SELECT amount FROM balances WHERE account = ?", account,
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, ledger.ErrNoAccount
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return amount, nil
}

// debitIntoEscrowTx moves amount from the account into custody under jobID,
// inside an open transaction. On error the caller's rollback leaves funds
// untouched.
func debitIntoEscrowTx(ctx context.Context, tx *sql.Tx, from string, jobID, amount int64) error {
	var balance int64
	err := tx.QueryRowContext(ctx,
		"SELECT amount FROM balances WHERE account = ?", from,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return ledger.ErrNoAccount
	}
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	if balance < amount {
		return ledger.ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE balances SET amount = amount - ? WHERE account = ?", amount, from,
	); err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO escrows (job_id, amount) VALUES (?, ?)", jobID, amount,
	)
	if isConstraintViolation(err) {
		return ledger.ErrEscrowExists
	}
	if err != nil {
		return fmt.Errorf("failed to create escrow: %w", err)
	}
	return nil
}

// releaseEscrowTx pays out a job's escrow inside an open transaction. The
// payouts must sum exactly to the escrowed amount; the released latch on the
// escrow row makes a second release fail.
func releaseEscrowTx(ctx context.Context, tx *sql.Tx, jobID int64, payouts []ledger.Payout) error {
	var amount int64
	var released bool
	err := tx.QueryRowContext(ctx,
		"SELECT amount, released FROM escrows WHERE job_id = ?", jobID,
	).Scan(&amount, &released)
	if err == sql.ErrNoRows {
		return ledger.ErrEscrowNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get escrow: %w", err)
	}
	if released {
		return ledger.ErrAlreadyReleased
	}

	var total int64
	for _, p := range payouts {
		total += p.Amount
	}
	if total != amount {
		return ledger.ErrAmountMismatch
	}

	for _, p := range payouts {
		if p.Amount == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO balances (account, amount) VALUES (?, ?)
			 ON CONFLICT(account) DO UPDATE SET amount = amount + ?`,
			p.Account, p.Amount, p.Amount,
		); err != nil {
			return fmt.Errorf("failed to credit account: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE escrows SET released = 1 WHERE job_id = ?", jobID,
	); err != nil {
		return fmt.Errorf("failed to mark escrow released: %w", err)
	}
	return nil
}
