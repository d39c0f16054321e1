package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// JobRepositoryPG implements domain.JobStore on PostgreSQL. The itinerary is
// stored as jsonb so the persisted document keeps the exact shape served to
// clients. Timestamps come from the database clock (NOW()), never from the
// caller.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job store backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job document and reads back the server-assigned
// creation timestamp.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO itineraries (job_id, status, destination, duration_days)
VALUES ($1, $2, $3, $4)
RETURNING created_at;
`
	row := r.pool.QueryRow(ctx, query, job.ID, job.Status, job.Destination, job.DurationDays)
	if err := row.Scan(&job.CreatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID fetches a job document by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT job_id, status, destination, duration_days, created_at, completed_at, itinerary, error_message
FROM itineraries
WHERE job_id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)

	var (
		job           domain.Job
		completedAt   *time.Time
		itineraryJSON []byte
		errMsg        *string
	)
	if err := row.Scan(
		&job.ID,
		&job.Status,
		&job.Destination,
		&job.DurationDays,
		&job.CreatedAt,
		&completedAt,
		&itineraryJSON,
		&errMsg,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}

	job.CompletedAt = completedAt
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	if len(itineraryJSON) > 0 {
		if err := json.Unmarshal(itineraryJSON, &job.Itinerary); err != nil {
			return nil, fmt.Errorf("decode stored itinerary: %w", err)
		}
	}
	return &job, nil
}

// MergeUpdate applies the terminal transition as a partial update. Fields not
// carried by the update keep their stored value; completed_at is assigned from
// the database clock.
func (r *JobRepositoryPG) MergeUpdate(ctx context.Context, jobID string, update domain.JobUpdate) error {
	var itineraryJSON []byte
	if update.Itinerary != nil {
		b, err := json.Marshal(update.Itinerary)
		if err != nil {
			return fmt.Errorf("encode itinerary: %w", err)
		}
		itineraryJSON = b
	}

	query := `
UPDATE itineraries
SET status = $2,
    itinerary = COALESCE($3, itinerary),
    error_message = COALESCE($4, error_message),
    completed_at = NOW()
WHERE job_id = $1;
`
	tag, err := r.pool.Exec(ctx, query, jobID, update.Status, itineraryJSON, nullableString(update.ErrorMessage))
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
