package models

// NoJob is the reserved job identifier meaning "no job". Real identifiers
// start at 1 and increase monotonically.
const NoJob int64 = 0

// Job represents a posted task with funds held in escrow.
//
// A job is created on posting with its payment locked, and is never
// deleted: ratings and the audit trail must remain queryable after payout.
type Job struct {
	// ID is the numeric job identifier, allocated by the store.
	ID int64

	// ClientID is the account that posted the job.
	ClientID string

	// WorkerID is the assigned worker's account ID. Empty until selection;
	// once set it is immutable for the life of the job.
	WorkerID string

	// Description is the client-supplied task text.
	Description string

	// Payment is the exact escrowed amount in minor units. The locked funds
	// always equal this value until release or arbitration.
	Payment int64

	// Applicants holds applicant account IDs in insertion order, no
	// duplicates. The posting client never appears here.
	Applicants []string

	// Lifecycle latches. Each transitions false -> true at most once.
	Completed   bool
	Paid        bool
	Disputed    bool
	WorkerRated bool
	ClientRated bool

	// CreatedAt is the Unix timestamp when the job was posted.
	CreatedAt int64
}

// Assigned reports whether a worker has been selected for the job.
func (j *Job) Assigned() bool {
	return j.WorkerID != ""
}

// HasApplicant reports whether id is already in the applicant set.
func (j *Job) HasApplicant(id string) bool {
	for _, a := range j.Applicants {
		if a == id {
			return true
		}
	}
	return false
}
