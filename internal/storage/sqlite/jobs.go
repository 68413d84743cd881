package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/models"
	"github.com/taskbay/taskbay/internal/storage"
)

// CreateJob inserts a new job with its payment locked in escrow and its
// JobPosted event, all in one transaction: the client's balance is debited
// by job.Payment and an escrow row is created under the identifier the
// insert allocates into job.ID. Any failure rolls the whole posting back,
// funds included. Identifiers are monotonic starting at 1.
func (s *SQLiteStore) CreateJob(ctx context.Context, job *models.Job, event *models.Event) error {
	if job.CreatedAt == 0 {
		job.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO jobs (client_id, description, payment, created_at) VALUES (?, ?, ?, ?)",
		job.ClientID, job.Description, job.Payment, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read job id: %w", err)
	}

	if err := debitIntoEscrowTx(ctx, tx, job.ClientID, id, job.Payment); err != nil {
		return err
	}

	event.JobID = id
	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	job.ID = id
	return nil
}

// SettleJob writes the job's state, pays out its escrow and records the
// transition event in a single transaction. The payouts must sum exactly to
// the escrowed amount. Either the flags, the credits and the event all
// commit, or none do.
func (s *SQLiteStore) SettleJob(ctx context.Context, job *models.Job, event *models.Event, payouts []ledger.Payout) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateJobRow(ctx, tx, job); err != nil {
		return err
	}
	if err := releaseEscrowTx(ctx, tx, job.ID, payouts); err != nil {
		return err
	}
	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID, including its applicant list in
// insertion order.
func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	job := &models.Job{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, worker_id, description, payment,
		        completed, paid, disputed, worker_rated, client_rated, created_at
		 FROM jobs WHERE id = ?`,
		id,
	).Scan(&job.ID, &job.ClientID, &job.WorkerID, &job.Description, &job.Payment,
		&job.Completed, &job.Paid, &job.Disputed, &job.WorkerRated, &job.ClientRated, &job.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // No such job
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT worker_id FROM applicants WHERE job_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get applicants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var workerID string
		if err := rows.Scan(&workerID); err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		job.Applicants = append(job.Applicants, workerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applicants: %w", err)
	}

	return job, nil
}

// AddApplicant appends a worker to the job's applicant set. The
// (job_id, worker_id) primary key enforces uniqueness; position preserves
// insertion order.
func (s *SQLiteStore) AddApplicant(ctx context.Context, jobID int64, workerID string, event *models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO applicants (job_id, worker_id, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM applicants WHERE job_id = ?))`,
		jobID, workerID, jobID,
	)
	if isConstraintViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert applicant: %w", err)
	}

	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// updateJobRow writes the job's assigned worker and lifecycle flags inside
// an open transaction.
func updateJobRow(ctx context.Context, tx *sql.Tx, job *models.Job) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET worker_id = ?, completed = ?, paid = ?, disputed = ?,
		        worker_rated = ?, client_rated = ?
		 WHERE id = ?`,
		job.WorkerID, job.Completed, job.Paid, job.Disputed,
		job.WorkerRated, job.ClientRated, job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check job update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job not found: %d", job.ID)
	}
	return nil
}

// UpdateJob writes the job's state and its transition event in one
// transaction.
func (s *SQLiteStore) UpdateJob(ctx context.Context, job *models.Job, event *models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateJobRow(ctx, tx, job); err != nil {
		return err
	}
	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CompleteJob writes the job's flags and increments the assigned worker's
// completed-jobs counter in the same transaction.
func (s *SQLiteStore) CompleteJob(ctx context.Context, job *models.Job, event *models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateJobRow(ctx, tx, job); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE workers SET completed_jobs = completed_jobs + 1 WHERE id = ?",
		job.WorkerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update worker counter: %w", err)
	}

	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
