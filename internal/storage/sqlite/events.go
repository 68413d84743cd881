package sqlite

import (
	"context"
	"fmt"

	"github.com/taskbay/taskbay/internal/models"
)

// ListEvents returns the audit trail for a job, oldest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, jobID int64) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, job_id, actor, subject, amount, detail, created_at
		 FROM events WHERE job_id = ? ORDER BY created_at, rowid`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		if err := rows.Scan(&event.ID, &event.Type, &event.JobID, &event.Actor,
			&event.Subject, &event.Amount, &event.Detail, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}
