package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/models"
)

func TestDepositAndBalance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("unknown account has no balance", func(t *testing.T) {
		if _, err := store.Balance(ctx, "ghost"); !errors.Is(err, ledger.ErrNoAccount) {
			t.Errorf("expected ErrNoAccount, got %v", err)
		}
	})

	t.Run("deposits accumulate", func(t *testing.T) {
		if err := store.Deposit(ctx, "c1", 100); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
		if err := store.Deposit(ctx, "c1", 50); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
		got, err := store.Balance(ctx, "c1")
		if err != nil {
			t.Fatalf("Balance failed: %v", err)
		}
		if got != 150 {
			t.Errorf("expected balance 150, got %d", got)
		}
	})

	t.Run("non-positive deposits are rejected", func(t *testing.T) {
		if err := store.Deposit(ctx, "c1", 0); err == nil {
			t.Error("expected error for zero deposit")
		}
		if err := store.Deposit(ctx, "c1", -5); err == nil {
			t.Error("expected error for negative deposit")
		}
		got, _ := store.Balance(ctx, "c1")
		if got != 150 {
			t.Errorf("rejected deposits must not change the balance, got %d", got)
		}
	})
}

// TestCreateJobFundingFailures verifies that a posting whose escrow cannot be
// funded leaves no trace: no job row, no balance movement, no event.
func TestCreateJobFundingFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("unknown client", func(t *testing.T) {
		job := &models.Job{ClientID: "nobody", Description: "logo", Payment: 100}
		err := store.CreateJob(ctx, job, models.NewEvent(models.EventJobPosted, models.NoJob, "nobody"))
		if !errors.Is(err, ledger.ErrNoAccount) {
			t.Fatalf("expected ErrNoAccount, got %v", err)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		fund(t, store, "c1", 60)
		job := &models.Job{ClientID: "c1", Description: "logo", Payment: 100}
		err := store.CreateJob(ctx, job, models.NewEvent(models.EventJobPosted, models.NoJob, "c1"))
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		got, err := store.Balance(ctx, "c1")
		if err != nil {
			t.Fatalf("Balance failed: %v", err)
		}
		if got != 60 {
			t.Errorf("failed posting must not move funds, balance = %d", got)
		}
	})

	t.Run("failed postings leave no job rows", func(t *testing.T) {
		fund(t, store, "c1", 40) // now 100
		job := &models.Job{ClientID: "c1", Description: "logo", Payment: 100}
		if err := store.CreateJob(ctx, job, models.NewEvent(models.EventJobPosted, models.NoJob, "c1")); err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
		if job.ID != 1 {
			t.Errorf("expected the first committed job to take id 1, got %d", job.ID)
		}
		missing, err := store.GetJob(ctx, 2)
		if err != nil || missing != nil {
			t.Errorf("expected no job beyond the committed one, got (%v, %v)", missing, err)
		}
	})
}

func TestSettleJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fund(t, store, "c1", 100)
	job := &models.Job{ClientID: "c1", WorkerID: "w1", Description: "logo", Payment: 100, Completed: true}
	if err := store.CreateJob(ctx, job, models.NewEvent(models.EventJobPosted, models.NoJob, "c1")); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	t.Run("unknown job has no escrow", func(t *testing.T) {
		orphan := &models.Job{ID: 42, ClientID: "c1", Payment: 100}
		err := store.SettleJob(ctx, orphan,
			models.NewEvent(models.EventPaymentReleased, 42, "c1"),
			[]ledger.Payout{{Account: "w1", Amount: 100}})
		if !errors.Is(err, ledger.ErrEscrowNotFound) {
			t.Errorf("expected ErrEscrowNotFound, got %v", err)
		}
	})

	t.Run("payouts must sum to the escrow", func(t *testing.T) {
		job.Paid = true
		err := store.SettleJob(ctx, job,
			models.NewEvent(models.EventPaymentReleased, job.ID, "c1"),
			[]ledger.Payout{{Account: "w1", Amount: 90}})
		if !errors.Is(err, ledger.ErrAmountMismatch) {
			t.Fatalf("expected ErrAmountMismatch, got %v", err)
		}
		job.Paid = false

		if _, err := store.Balance(ctx, "w1"); !errors.Is(err, ledger.ErrNoAccount) {
			t.Errorf("mismatched settlement must not credit anyone, got %v", err)
		}
		got, err := store.GetJob(ctx, job.ID)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if got.Paid {
			t.Error("mismatched settlement must not persist the paid flag")
		}
	})

	t.Run("settlement credits the split exactly once", func(t *testing.T) {
		job.Paid = true
		err := store.SettleJob(ctx, job,
			models.NewEvent(models.EventPaymentReleased, job.ID, "c1"),
			[]ledger.Payout{{Account: "w1", Amount: 70}, {Account: "c1", Amount: 30}})
		if err != nil {
			t.Fatalf("SettleJob failed: %v", err)
		}

		worker, err := store.Balance(ctx, "w1")
		if err != nil || worker != 70 {
			t.Errorf("expected worker balance 70, got (%d, %v)", worker, err)
		}
		client, err := store.Balance(ctx, "c1")
		if err != nil || client != 30 {
			t.Errorf("expected client balance 30, got (%d, %v)", client, err)
		}
	})

	t.Run("second settlement is rejected", func(t *testing.T) {
		err := store.SettleJob(ctx, job,
			models.NewEvent(models.EventPaymentReleased, job.ID, "c1"),
			[]ledger.Payout{{Account: "w1", Amount: 100}})
		if !errors.Is(err, ledger.ErrAlreadyReleased) {
			t.Fatalf("expected ErrAlreadyReleased, got %v", err)
		}
		worker, _ := store.Balance(ctx, "w1")
		if worker != 70 {
			t.Errorf("repeat settlement must not credit again, balance = %d", worker)
		}
	})
}
