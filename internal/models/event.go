package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types, one per committed state transition.
const (
	EventWorkerRegistered = "WorkerRegistered"
	EventJobPosted        = "JobPosted"
	EventJobApplied       = "JobApplied"
	EventWorkerSelected   = "WorkerSelected"
	EventJobCompleted     = "JobCompleted"
	EventPaymentReleased  = "PaymentReleased"
	EventDisputeRaised    = "DisputeRaised"
	EventDisputeResolved  = "DisputeResolved"
	EventRatingGiven      = "RatingGiven"
)

// Dispute outcomes recorded on EventDisputeResolved.
const (
	OutcomeSplit      = "tie / split"
	OutcomeWorkerWins = "worker wins"
	OutcomeClientWins = "client wins"
)

// Event is one durable audit-trail entry. Events are written in the same
// storage transaction as the state change they describe: never emitted on
// a failed operation, never omitted on success.
type Event struct {
	// ID is the unique event identifier (UUID format).
	ID string

	// Type is one of the Event* constants above.
	Type string

	// JobID is the subject job, or NoJob for registration events.
	JobID int64

	// Actor is the account that performed the transition.
	Actor string

	// Subject is the other party named by the event, when there is one:
	// the rated account for RatingGiven, the selected worker for
	// WorkerSelected, the payee for PaymentReleased.
	Subject string

	// Amount carries the money moved, for payment events.
	Amount int64

	// Detail carries event-specific text: the job description for
	// JobPosted, the outcome for DisputeResolved, the rating value for
	// RatingGiven.
	Detail string

	// CreatedAt is the Unix timestamp when the event was committed.
	CreatedAt int64
}

// NewEvent builds an event with a fresh UUID and timestamp.
func NewEvent(eventType string, jobID int64, actor string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		JobID:     jobID,
		Actor:     actor,
		CreatedAt: time.Now().Unix(),
	}
}
