package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Generator produces a validated itinerary for a destination and duration.
type Generator interface {
	GenerateItinerary(ctx context.Context, destination string, days int) ([]domain.Day, error)
}

// ItineraryService owns the job state machine: it creates jobs, schedules the
// generation workflow off the request path, and reconciles the outcome back
// into the store. It holds no job state of its own; every read goes through
// the store.
type ItineraryService struct {
	store domain.JobStore
	gen   Generator
	disp  Dispatcher
	log   zerolog.Logger
}

// NewItineraryService wires the orchestrator.
func NewItineraryService(store domain.JobStore, gen Generator, disp Dispatcher, log zerolog.Logger) *ItineraryService {
	return &ItineraryService{store: store, gen: gen, disp: disp, log: log}
}

// Submit validates the input, persists a new processing job, and schedules the
// generation workflow. It returns as soon as the job document exists; the
// caller observes progress by polling Status. A store failure here aborts the
// submission since there is no job record to report into.
func (s *ItineraryService) Submit(ctx context.Context, in domain.SubmitInput) (*domain.Job, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:           uuid.NewString(),
		Status:       domain.JobStatusProcessing,
		Destination:  in.Destination,
		DurationDays: in.DurationDays,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("destination", job.Destination).
		Int("duration_days", job.DurationDays).
		Msg("job accepted")

	s.disp.Dispatch(func(ctx context.Context) {
		s.runGeneration(ctx, job.ID, job.Destination, job.DurationDays)
	})
	return job, nil
}

// Status is a pure read-through to the store.
func (s *ItineraryService) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.GetByID(ctx, jobID)
}

// runGeneration executes exactly once per job. Any generation error becomes a
// terminal failed record; it never propagates to a waiting caller.
func (s *ItineraryService) runGeneration(ctx context.Context, jobID, destination string, days int) {
	itinerary, err := s.gen.GenerateItinerary(ctx, destination, days)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("generation failed")
		s.finish(ctx, jobID, domain.JobUpdate{
			Status:       domain.JobStatusFailed,
			ErrorMessage: err.Error(),
		})
		return
	}

	if !domain.ContiguousRange(itinerary, days) {
		s.log.Warn().
			Str("job_id", jobID).
			Int("requested_days", days).
			Int("returned_days", len(itinerary)).
			Msg("itinerary day range does not match requested duration")
	}

	s.finish(ctx, jobID, domain.JobUpdate{
		Status:    domain.JobStatusCompleted,
		Itinerary: itinerary,
	})
}

func (s *ItineraryService) finish(ctx context.Context, jobID string, update domain.JobUpdate) {
	if err := s.store.MergeUpdate(ctx, jobID, update); err != nil {
		// The job stays in processing forever; there is no retry of the
		// terminal write and no lease to reclaim it.
		s.log.Error().Err(err).Str("job_id", jobID).Msg("failed to persist terminal state")
		return
	}
	s.log.Info().Str("job_id", jobID).Str("status", string(update.Status)).Msg("job finished")
}
