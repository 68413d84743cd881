package market

import (
	"context"
	"fmt"

	"github.com/taskbay/taskbay/internal/models"
)

// JobView is the read shape returned by GetJob: the full job record plus
// the assigned worker's display name, when one is assigned.
type JobView struct {
	Job        *models.Job
	WorkerName string
}

// WorkerStats exposes a worker's completed-task count and truncated average
// rating (0 when no ratings exist).
type WorkerStats struct {
	CompletedJobs int64
	AverageRating int64
}

// ClientStats exposes a client's truncated average rating (0 when no
// ratings exist).
type ClientStats struct {
	AverageRating int64
}

// GetJob returns the job record with the assigned worker's display name.
func (m *Marketplace) GetJob(ctx context.Context, jobID int64) (*JobView, error) {
	job, err := m.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	view := &JobView{Job: job}
	if job.Assigned() {
		worker, err := m.store.GetWorker(ctx, job.WorkerID)
		if err != nil {
			return nil, fmt.Errorf("get job: %w", err)
		}
		if worker != nil {
			view.WorkerName = worker.Name
		}
	}
	return view, nil
}

// GetWorkerStats returns stats for a registered worker. Fails with
// ErrNotFound for an unregistered identity.
func (m *Marketplace) GetWorkerStats(ctx context.Context, workerID string) (*WorkerStats, error) {
	worker, err := m.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("get worker stats: %w", err)
	}
	if worker == nil {
		return nil, ErrNotFound
	}
	return &WorkerStats{
		CompletedJobs: worker.CompletedJobs,
		AverageRating: worker.Average(0),
	}, nil
}

// GetClientStats returns a client's rating average. Client records are
// created lazily on first rating, so an identity with no record has zero
// history rather than being an error.
func (m *Marketplace) GetClientStats(ctx context.Context, clientID string) (*ClientStats, error) {
	client, err := m.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client stats: %w", err)
	}
	if client == nil {
		return &ClientStats{}, nil
	}
	return &ClientStats{AverageRating: client.Average(0)}, nil
}

// JobEvents returns the audit trail for a job, oldest first. Fails with
// ErrNotFound for an unknown job.
func (m *Marketplace) JobEvents(ctx context.Context, jobID int64) ([]*models.Event, error) {
	if _, err := m.getJob(ctx, jobID); err != nil {
		return nil, err
	}
	events, err := m.store.ListEvents(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job events: %w", err)
	}
	return events, nil
}
