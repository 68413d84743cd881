// Package market implements the job lifecycle state machine: posting with
// escrow, open applications, selection, completion, payment release,
// dispute arbitration and mutual ratings.
//
// Every state-mutating operation on a job runs under that job's lock, so
// transitions are serialized per identifier and never observe stale flags.
// Each operation either fully commits its state change together with its
// audit event, or has zero observable effect.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/models"
	"github.com/taskbay/taskbay/internal/storage"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Marketplace is the core service. All methods are safe for concurrent use.
type Marketplace struct {
	store   storage.Store
	arbiter string

	locks *jobLocks
}

// New creates a Marketplace. arbiterID is the single identity allowed to
// resolve disputes, injected from configuration at startup.
func New(store storage.Store, arbiterID string) *Marketplace {
	return &Marketplace{
		store:   store,
		arbiter: arbiterID,
		locks:   newJobLocks(),
	}
}

// isCustodyError reports whether err is a funds problem rather than a
// storage problem. Custody errors surface as ErrTransferFailed.
func isCustodyError(err error) bool {
	return errors.Is(err, ledger.ErrNoAccount) ||
		errors.Is(err, ledger.ErrInsufficientFunds) ||
		errors.Is(err, ledger.ErrEscrowExists) ||
		errors.Is(err, ledger.ErrEscrowNotFound) ||
		errors.Is(err, ledger.ErrAlreadyReleased) ||
		errors.Is(err, ledger.ErrAmountMismatch)
}

// RegisterWorker creates the worker capability for an identity. One-time:
// there is no re-registration or profile update path.
func (m *Marketplace) RegisterWorker(ctx context.Context, identity, name, skill string) error {
	if name == "" || skill == "" {
		return ErrInvalidInput
	}

	existing, err := m.store.GetWorker(ctx, identity)
	if err != nil {
		return fmt.Errorf("register worker: %w", err)
	}
	if existing != nil {
		return ErrAlreadyRegistered
	}

	worker := &models.Worker{
		ID:        identity,
		Name:      name,
		Skill:     skill,
		CreatedAt: time.Now().Unix(),
	}
	event := models.NewEvent(models.EventWorkerRegistered, models.NoJob, identity)
	event.Detail = skill

	if err := m.store.CreateWorker(ctx, worker, event); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return ErrAlreadyRegistered
		}
		slog.Error("RegisterWorker failed", "identity", identity, "error", err)
		return fmt.Errorf("register worker: %w", err)
	}
	return nil
}

// PostJob creates a job and locks attachedFunds in escrow under its
// identifier. The attached funds must exactly equal the declared payment.
// Job row, escrow and event commit in one store transaction, so a failed
// post leaves no state behind. Returns the new job identifier.
func (m *Marketplace) PostJob(ctx context.Context, clientID, description string, payment, attachedFunds int64) (int64, error) {
	if description == "" || payment <= 0 {
		return models.NoJob, ErrInvalidInput
	}
	if attachedFunds != payment {
		return models.NoJob, ErrEscrowMismatch
	}

	job := &models.Job{
		ClientID:    clientID,
		Description: description,
		Payment:     payment,
	}
	event := models.NewEvent(models.EventJobPosted, models.NoJob, clientID)
	event.Amount = payment
	event.Detail = description

	if err := m.store.CreateJob(ctx, job, event); err != nil {
		if isCustodyError(err) {
			slog.Warn("PostJob escrow rejected", "client", clientID, "error", err)
			return models.NoJob, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		slog.Error("PostJob failed", "client", clientID, "error", err)
		return models.NoJob, fmt.Errorf("post job: %w", err)
	}

	return job.ID, nil
}

// getJob loads a job, mapping absence to ErrNotFound.
func (m *Marketplace) getJob(ctx context.Context, jobID int64) (*models.Job, error) {
	job, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", jobID, err)
	}
	if job == nil {
		return nil, ErrNotFound
	}
	return job, nil
}

// ApplyForJob appends a registered worker to a job's applicant set.
func (m *Marketplace) ApplyForJob(ctx context.Context, workerID string, jobID int64) error {
	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	worker, err := m.store.GetWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("apply for job: %w", err)
	}
	if worker == nil {
		return ErrNotRegistered
	}

	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch {
	case job.Assigned():
		return ErrAlreadyAssigned
	case job.Disputed:
		return ErrDisputed
	case workerID == job.ClientID:
		return ErrSelfApplication
	case job.HasApplicant(workerID):
		return ErrDuplicateApplication
	}

	event := models.NewEvent(models.EventJobApplied, jobID, workerID)
	if err := m.store.AddApplicant(ctx, jobID, workerID, event); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return ErrDuplicateApplication
		}
		slog.Error("ApplyForJob failed", "job_id", jobID, "worker", workerID, "error", err)
		return fmt.Errorf("apply for job: %w", err)
	}
	return nil
}

// SelectWorker assigns one applicant to the job. This is the sole
// transition from Open to Assigned; the assignment is irreversible.
func (m *Marketplace) SelectWorker(ctx context.Context, callerID string, jobID int64, workerID string) error {
	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Disputed {
		return ErrDisputed
	}
	if job.Assigned() {
		return ErrAlreadyAssigned
	}
	if callerID != job.ClientID {
		return ErrUnauthorized
	}

	worker, err := m.store.GetWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("select worker: %w", err)
	}
	if worker == nil {
		return ErrNotRegistered
	}
	if !job.HasApplicant(workerID) {
		return ErrNotAnApplicant
	}

	job.WorkerID = workerID
	event := models.NewEvent(models.EventWorkerSelected, jobID, callerID)
	event.Subject = workerID

	if err := m.store.UpdateJob(ctx, job, event); err != nil {
		slog.Error("SelectWorker failed", "job_id", jobID, "worker", workerID, "error", err)
		return fmt.Errorf("select worker: %w", err)
	}
	return nil
}

// CompleteJob marks the work done and increments the worker's
// completed-task counter. Independent of payment.
func (m *Marketplace) CompleteJob(ctx context.Context, workerID string, jobID int64) error {
	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	worker, err := m.store.GetWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if worker == nil {
		return ErrNotRegistered
	}

	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Disputed {
		return ErrDisputed
	}
	if job.WorkerID != workerID {
		return ErrUnauthorized
	}
	if job.Completed {
		return ErrAlreadyCompleted
	}

	job.Completed = true
	event := models.NewEvent(models.EventJobCompleted, jobID, workerID)

	if err := m.store.CompleteJob(ctx, job, event); err != nil {
		slog.Error("CompleteJob failed", "job_id", jobID, "worker", workerID, "error", err)
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// ReleasePayment transfers the full escrowed amount to the assigned worker.
// The paid latch, the payout and the event commit in one store transaction;
// any failure rolls the whole operation back, leaving the job retryable.
func (m *Marketplace) ReleasePayment(ctx context.Context, callerID string, jobID int64) error {
	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch {
	case job.Disputed:
		return ErrDisputed
	case !job.Completed:
		return ErrNotCompleted
	case job.Paid:
		return ErrAlreadyPaid
	case callerID != job.ClientID:
		return ErrUnauthorized
	case !job.Assigned():
		return ErrNotAssigned
	}

	job.Paid = true
	payouts := []ledger.Payout{{Account: job.WorkerID, Amount: job.Payment}}

	event := models.NewEvent(models.EventPaymentReleased, jobID, callerID)
	event.Subject = job.WorkerID
	event.Amount = job.Payment

	if err := m.store.SettleJob(ctx, job, event, payouts); err != nil {
		if isCustodyError(err) {
			slog.Warn("ReleasePayment transfer failed", "job_id", jobID, "error", err)
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		slog.Error("ReleasePayment failed", "job_id", jobID, "error", err)
		return fmt.Errorf("release payment: %w", err)
	}
	return nil
}

// RaiseDispute freezes the job until arbitration. Only the assigned worker
// or the posting client may raise it, and only before payment.
func (m *Marketplace) RaiseDispute(ctx context.Context, callerID string, jobID int64) error {
	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch {
	case job.Disputed:
		return ErrDisputed
	case !job.Assigned():
		return ErrNotAssigned
	case job.Paid:
		return ErrAlreadyPaid
	case callerID != job.WorkerID && callerID != job.ClientID:
		return ErrUnauthorized
	}

	job.Disputed = true
	event := models.NewEvent(models.EventDisputeRaised, jobID, callerID)

	if err := m.store.UpdateJob(ctx, job, event); err != nil {
		slog.Error("RaiseDispute failed", "job_id", jobID, "error", err)
		return fmt.Errorf("raise dispute: %w", err)
	}
	return nil
}

// RateWorker records the client's one-shot rating of the assigned worker.
func (m *Marketplace) RateWorker(ctx context.Context, clientID string, jobID, rating int64) error {
	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	if rating < MinRating || rating > MaxRating {
		return ErrInvalidInput
	}
	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch {
	case !job.Completed:
		return ErrNotCompleted
	case !job.Assigned():
		return ErrNotAssigned
	case clientID != job.ClientID:
		return ErrUnauthorized
	case job.WorkerRated:
		return ErrAlreadyRated
	}

	job.WorkerRated = true
	return m.recordRating(ctx, job,
		storage.Rating{WorkerID: job.WorkerID, Value: rating},
		clientID, job.WorkerID, rating)
}

// RateClient records the worker's one-shot rating of the posting client.
func (m *Marketplace) RateClient(ctx context.Context, workerID string, jobID, rating int64) error {
	m.locks.lock(jobID)
	defer m.locks.unlock(jobID)

	if rating < MinRating || rating > MaxRating {
		return ErrInvalidInput
	}
	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch {
	case !job.Completed:
		return ErrNotCompleted
	case workerID != job.WorkerID:
		return ErrUnauthorized
	case job.ClientRated:
		return ErrAlreadyRated
	}

	job.ClientRated = true
	return m.recordRating(ctx, job,
		storage.Rating{ClientID: job.ClientID, Value: rating},
		workerID, job.ClientID, rating)
}

func (m *Marketplace) recordRating(ctx context.Context, job *models.Job, rating storage.Rating, rater, rated string, value int64) error {
	event := models.NewEvent(models.EventRatingGiven, job.ID, rater)
	event.Subject = rated
	event.Detail = strconv.FormatInt(value, 10)

	if err := m.store.RecordRating(ctx, job, rating, event); err != nil {
		slog.Error("rating failed", "job_id", job.ID, "rater", rater, "error", err)
		return fmt.Errorf("record rating: %w", err)
	}
	return nil
}
