package domain

import "context"

// JobUpdate is the partial merge applied at the terminal transition. Exactly
// one of Itinerary and ErrorMessage is set, matching Status. CompletedAt is
// deliberately absent: stores assign it from their own server clock so that
// clock skew between callers never leaks into persisted documents.
type JobUpdate struct {
	Status       JobStatus
	Itinerary    []Day
	ErrorMessage string
}

// JobStore defines persistence for job documents, keyed by job identifier.
// The store exclusively owns persisted state; callers hold no cached copies.
type JobStore interface {
	// Create writes a new document with the store's server clock as CreatedAt
	// and writes the assigned timestamp back into job.
	Create(ctx context.Context, job *Job) error
	// GetByID fetches a job document. Unknown identifiers yield ErrNotFound.
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// MergeUpdate applies a partial field update without rewriting the whole
	// document. Unknown identifiers yield ErrNotFound.
	MergeUpdate(ctx context.Context, jobID string, update JobUpdate) error
}
