package market

import "errors"

// Error taxonomy for the marketplace core. All errors are synchronous and
// leave state unchanged; retry is the caller's responsibility.
var (
	// ErrInvalidInput covers malformed arguments: empty text, out-of-range
	// rating, non-positive payment.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized means the caller lacks the required role for this job.
	ErrUnauthorized = errors.New("caller not authorized for this operation")

	// ErrNotFound means the job or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotRegistered means the caller or target has no worker record.
	ErrNotRegistered = errors.New("worker not registered")

	// One-shot latch violations.
	ErrAlreadyRegistered = errors.New("worker already registered")
	ErrAlreadyAssigned   = errors.New("job already has an assigned worker")
	ErrAlreadyCompleted  = errors.New("job already completed")
	ErrAlreadyRated      = errors.New("already rated for this job")
	ErrAlreadyPaid       = errors.New("job already paid")

	// ErrDisputed means the operation is forbidden while the job is frozen
	// by an open dispute.
	ErrDisputed = errors.New("job is disputed")

	// Application errors.
	ErrSelfApplication      = errors.New("client cannot apply to own job")
	ErrDuplicateApplication = errors.New("worker already applied to this job")
	ErrNotAnApplicant       = errors.New("worker is not an applicant")

	// ErrEscrowMismatch means the funds attached to the call do not exactly
	// equal the declared payment.
	ErrEscrowMismatch = errors.New("attached funds do not equal payment")

	// ErrTransferFailed means the custody collaborator could not move
	// funds. The job remains in its prior state; a retry is meaningful.
	ErrTransferFailed = errors.New("funds transfer failed")

	// State preconditions not yet reached.
	ErrNotCompleted = errors.New("job not completed")
	ErrNotAssigned  = errors.New("job has no assigned worker")
	ErrNotDisputed  = errors.New("job is not disputed")
)
