package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskbay/taskbay/internal/models"
	"github.com/taskbay/taskbay/internal/storage"
)

// CreateWorker inserts a new worker record and its registration event.
func (s *SQLiteStore) CreateWorker(ctx context.Context, worker *models.Worker, event *models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO workers (id, name, skill, completed_jobs, rating_count, rating_sum, created_at) VALUES (?, ?, ?, 0, 0, 0, ?)",
		worker.ID, worker.Name, worker.Skill, worker.CreatedAt,
	)
	if isConstraintViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert worker: %w", err)
	}

	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetWorker retrieves a worker by account ID.
func (s *SQLiteStore) GetWorker(ctx context.Context, id string) (*models.Worker, error) {
	worker := &models.Worker{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, skill, completed_jobs, rating_count, rating_sum, created_at FROM workers WHERE id = ?",
		id,
	).Scan(&worker.ID, &worker.Name, &worker.Skill, &worker.CompletedJobs, &worker.RatingCount, &worker.RatingSum, &worker.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil // Not registered
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return worker, nil
}

// GetClient retrieves a client rating aggregate by account ID.
func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	client := &models.Client{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, rating_count, rating_sum FROM clients WHERE id = ?",
		id,
	).Scan(&client.ID, &client.RatingCount, &client.RatingSum)

	if err == sql.ErrNoRows {
		return nil, nil // Never rated as a client
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// RecordRating sets the job's rating latch and adds the rating to the
// target aggregate, all in one transaction. Relative updates
// (rating_sum = rating_sum + ?) keep concurrent ratings for the same
// identity atomic without an identity-level lock.
func (s *SQLiteStore) RecordRating(ctx context.Context, job *models.Job, rating storage.Rating, event *models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateJobRow(ctx, tx, job); err != nil {
		return err
	}

	switch {
	case rating.WorkerID != "":
		_, err = tx.ExecContext(ctx,
			"UPDATE workers SET rating_count = rating_count + 1, rating_sum = rating_sum + ? WHERE id = ?",
			rating.Value, rating.WorkerID,
		)
		if err != nil {
			return fmt.Errorf("failed to update worker rating: %w", err)
		}
	case rating.ClientID != "":
		// Lazily create the client aggregate on first rating.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO clients (id, rating_count, rating_sum) VALUES (?, 1, ?)
			 ON CONFLICT(id) DO UPDATE SET rating_count = rating_count + 1, rating_sum = rating_sum + ?`,
			rating.ClientID, rating.Value, rating.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to update client rating: %w", err)
		}
	default:
		return fmt.Errorf("rating names no target party")
	}

	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
