package models

// RatingAggregate accumulates 1-5 ratings for a participant.
// Ratings are permanent and unweighted by recency.
type RatingAggregate struct {
	// RatingCount is the number of ratings received.
	RatingCount int64

	// RatingSum is the sum of all rating values received.
	RatingSum int64
}

// Average returns the integer-truncated mean rating, or def when no
// ratings exist. Arbitration passes 3 (the neutral default); the stats
// queries pass 0.
func (r RatingAggregate) Average(def int64) int64 {
	if r.RatingCount == 0 {
		return def
	}
	return r.RatingSum / r.RatingCount
}

// Worker is the worker capability of an account, created once on
// registration. Identity is immutable after creation; the record is
// mutated only by job completions (counter) and client ratings (aggregate).
// Never deleted.
type Worker struct {
	// ID is the owning account's identifier.
	ID string

	// Name is the display name shown to clients.
	Name string

	// Skill is the worker's declared skill tag.
	Skill string

	// CompletedJobs counts jobs this worker has marked complete.
	CompletedJobs int64

	RatingAggregate

	// CreatedAt is the Unix timestamp of registration.
	CreatedAt int64
}

// Client is the rating aggregate of a job-posting account. Created lazily
// on the first rating received; there is no explicit client registration.
type Client struct {
	// ID is the account identifier of the job poster.
	ID string

	RatingAggregate
}
