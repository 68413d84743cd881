package market

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/models"
)

// defaultRating is the neutral rating assumed for a party with no rating
// history when comparing averages in arbitration. Changing it changes
// arbitration outcomes; it is a fairness policy constant, not a derived
// value.
const defaultRating = 3

// splitEscrow divides payment between client and worker for a tie.
// Integer division, remainder-safe: the two parts always sum exactly to
// payment (the worker receives the odd unit).
func splitEscrow(payment int64) (clientShare, workerShare int64) {
	clientShare = payment / 2
	workerShare = payment - clientShare
	return clientShare, workerShare
}

// ResolveDispute arbitrates a frozen job. Restricted to the single arbiter
// identity configured at startup.
//
// The outcome is decided by comparing the parties' truncated average
// ratings (neutral default 3 when a party has no history): a tie splits the
// escrow, otherwise the higher-rated party receives the full amount. The
// paid latch, the payouts and the event commit in one store transaction, so
// a failed settlement leaves the job disputed, unpaid and retryable. The
// disputed flag stays true afterwards as a historical record.
func (m *Marketplace) ResolveDispute(ctx context.Context, callerID string, jobID int64) error {
	if callerID != m.arbiter {
		return ErrUnauthorized
	}

	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch {
	case !job.Disputed:
		return ErrNotDisputed
	case job.Paid:
		return ErrAlreadyPaid
	case !job.Assigned():
		return ErrNotAssigned
	}

	client, err := m.store.GetClient(ctx, job.ClientID)
	if err != nil {
		return fmt.Errorf("resolve dispute: %w", err)
	}
	worker, err := m.store.GetWorker(ctx, job.WorkerID)
	if err != nil {
		return fmt.Errorf("resolve dispute: %w", err)
	}
	if worker == nil {
		return ErrNotRegistered
	}

	clientAvg := int64(defaultRating)
	if client != nil {
		clientAvg = client.Average(defaultRating)
	}
	workerAvg := worker.Average(defaultRating)

	var payouts []ledger.Payout
	var outcome string
	switch {
	case workerAvg == clientAvg:
		clientShare, workerShare := splitEscrow(job.Payment)
		payouts = []ledger.Payout{
			{Account: job.ClientID, Amount: clientShare},
			{Account: job.WorkerID, Amount: workerShare},
		}
		outcome = models.OutcomeSplit
	case workerAvg > clientAvg:
		payouts = []ledger.Payout{{Account: job.WorkerID, Amount: job.Payment}}
		outcome = models.OutcomeWorkerWins
	default:
		payouts = []ledger.Payout{{Account: job.ClientID, Amount: job.Payment}}
		outcome = models.OutcomeClientWins
	}

	job.Paid = true
	event := models.NewEvent(models.EventDisputeResolved, jobID, callerID)
	event.Amount = job.Payment
	event.Detail = outcome

	if err := m.store.SettleJob(ctx, job, event, payouts); err != nil {
		if isCustodyError(err) {
			slog.Warn("ResolveDispute transfer failed", "job_id", jobID, "error", err)
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		slog.Error("ResolveDispute failed", "job_id", jobID, "error", err)
		return fmt.Errorf("resolve dispute: %w", err)
	}

	slog.Info("Dispute resolved",
		"job_id", jobID,
		"outcome", outcome,
		"worker_avg", workerAvg,
		"client_avg", clientAvg,
	)
	return nil
}
