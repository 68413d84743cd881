// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/models"
)

// ErrConflict is returned when an insert violates a uniqueness constraint
// (duplicate worker registration, duplicate applicant). Callers translate
// it into their own taxonomy.
var ErrConflict = errors.New("storage: conflict")

// Rating names the party whose aggregate a rating updates. Exactly one of
// WorkerID or ClientID is set.
type Rating struct {
	WorkerID string
	ClientID string
	Value    int64
}

// Store defines the interface for marketplace persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Every mutating method that takes an *models.Event commits the entity
// change and the audit event in a single transaction: the event exists if
// and only if the transition committed.
type Store interface {
	// CreateAccount persists a new account. Fails with ErrConflict if the
	// email is already taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccountByEmail retrieves an account by email.
	// Returns (nil, nil) if no such account exists.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetAccountByID retrieves an account by ID.
	// Returns (nil, nil) if no such account exists.
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)

	// CreateWorker persists a new worker record. Fails with ErrConflict if
	// the identity is already registered.
	CreateWorker(ctx context.Context, worker *models.Worker, event *models.Event) error

	// GetWorker retrieves a worker by account ID.
	// Returns (nil, nil) if the identity is not registered.
	GetWorker(ctx context.Context, id string) (*models.Worker, error)

	// GetClient retrieves a client rating aggregate by account ID.
	// Returns (nil, nil) if the identity has never been rated as a client.
	GetClient(ctx context.Context, id string) (*models.Client, error)

	// CreateJob persists a new job with its payment moved from the client's
	// balance into escrow, allocating the next identifier into job.ID.
	// Identifiers start at 1 and increase monotonically. Job row, escrow
	// and event commit in one transaction; a funding failure
	// (ledger.ErrNoAccount, ledger.ErrInsufficientFunds) leaves no trace.
	CreateJob(ctx context.Context, job *models.Job, event *models.Event) error

	// GetJob retrieves a job with its applicant list in insertion order.
	// Returns (nil, nil) if no job has that identifier.
	GetJob(ctx context.Context, id int64) (*models.Job, error)

	// AddApplicant appends a worker to a job's applicant set. Fails with
	// ErrConflict if the worker already applied.
	AddApplicant(ctx context.Context, jobID int64, workerID string, event *models.Event) error

	// UpdateJob writes the job's assigned worker and lifecycle flags.
	UpdateJob(ctx context.Context, job *models.Job, event *models.Event) error

	// CompleteJob writes the job's flags and increments the assigned
	// worker's completed-jobs counter in the same transaction.
	CompleteJob(ctx context.Context, job *models.Job, event *models.Event) error

	// SettleJob writes the job's flags, pays out its escrow to the given
	// recipients and records the transition event, all in one transaction.
	// The payouts must sum exactly to the escrowed amount; a second
	// settlement fails with ledger.ErrAlreadyReleased and credits nothing.
	SettleJob(ctx context.Context, job *models.Job, event *models.Event, payouts []ledger.Payout) error

	// RecordRating writes the job's rating latch and adds the rating to the
	// target party's aggregate in the same transaction. Client aggregates
	// are created lazily on first rating.
	RecordRating(ctx context.Context, job *models.Job, rating Rating, event *models.Event) error

	// ListEvents returns the audit trail for a job, oldest first.
	ListEvents(ctx context.Context, jobID int64) ([]*models.Event, error)

	// Close releases any resources held by the store.
	Close() error
}
