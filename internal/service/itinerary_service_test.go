package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// memStore is an in-memory domain.JobStore with server-assigned timestamps,
// mirroring the merge semantics of the real backends.
type memStore struct {
	mu     sync.Mutex
	jobs   map[string]*domain.Job
	failOn string // "create" or "merge"
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*domain.Job)}
}

func (s *memStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "create" {
		return errors.New("store unavailable")
	}
	job.CreatedAt = time.Now().UTC()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *memStore) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *memStore) MergeUpdate(ctx context.Context, jobID string, update domain.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "merge" {
		return errors.New("store unavailable")
	}
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = update.Status
	if update.Itinerary != nil {
		job.Itinerary = update.Itinerary
	}
	if update.ErrorMessage != "" {
		job.ErrorMessage = update.ErrorMessage
	}
	now := time.Now().UTC()
	job.CompletedAt = &now
	return nil
}

// manualDispatcher holds dispatched tasks so tests can observe the job before
// and after the workflow runs.
type manualDispatcher struct {
	tasks []func(ctx context.Context)
}

func (d *manualDispatcher) Dispatch(task func(ctx context.Context)) {
	d.tasks = append(d.tasks, task)
}

func (d *manualDispatcher) runAll() {
	for _, task := range d.tasks {
		task(context.Background())
	}
	d.tasks = nil
}

type stubGenerator struct {
	fn func(ctx context.Context, destination string, days int) ([]domain.Day, error)
}

func (g stubGenerator) GenerateItinerary(ctx context.Context, destination string, days int) ([]domain.Day, error) {
	return g.fn(ctx, destination, days)
}

func makeItinerary(n int) []domain.Day {
	days := make([]domain.Day, n)
	for i := range days {
		days[i] = domain.Day{
			Day:   i + 1,
			Theme: fmt.Sprintf("Day %d theme", i+1),
			Activities: []domain.Activity{
				{Time: "9:00 AM", Description: "Morning walk", Location: "Old Town"},
				{Time: "2:00 PM", Description: "Gallery visit", Location: "City Gallery"},
			},
		}
	}
	return days
}

func newTestService(store domain.JobStore, gen Generator, disp Dispatcher) *ItineraryService {
	return NewItineraryService(store, gen, disp, zerolog.Nop())
}

func TestSubmitCreatesProcessingJob(t *testing.T) {
	store := newMemStore()
	disp := &manualDispatcher{}
	svc := newTestService(store, stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
		return makeItinerary(n), nil
	}}, disp)

	job, err := svc.Submit(context.Background(), domain.SubmitInput{Destination: "Paris", DurationDays: 5})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected a job id")
	}

	// Before the workflow runs the job is processing with no terminal fields.
	got, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if got.Status != domain.JobStatusProcessing {
		t.Fatalf("status = %q, want processing", got.Status)
	}
	if got.Itinerary != nil || got.ErrorMessage != "" {
		t.Fatalf("terminal fields set on processing job: %+v", got)
	}
	if got.CompletedAt != nil {
		t.Fatal("completedAt set on processing job")
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("createdAt not assigned")
	}
	if len(disp.tasks) != 1 {
		t.Fatalf("dispatched tasks = %d, want 1", len(disp.tasks))
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	store := newMemStore()
	disp := &manualDispatcher{}
	svc := newTestService(store, stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
		t.Fatal("generator must not be called")
		return nil, nil
	}}, disp)

	cases := []domain.SubmitInput{
		{Destination: "", DurationDays: 5},
		{Destination: "   ", DurationDays: 5},
		{Destination: "Paris", DurationDays: 0},
		{Destination: "Paris", DurationDays: 31},
	}
	for _, in := range cases {
		if _, err := svc.Submit(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("Submit(%+v) error = %v, want ErrInvalidInput", in, err)
		}
	}
	if len(store.jobs) != 0 {
		t.Fatalf("jobs created for invalid input: %d", len(store.jobs))
	}
	if len(disp.tasks) != 0 {
		t.Fatalf("tasks dispatched for invalid input: %d", len(disp.tasks))
	}
}

func TestWorkflowCompletesJob(t *testing.T) {
	store := newMemStore()
	disp := &manualDispatcher{}
	svc := newTestService(store, stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
		return makeItinerary(n), nil
	}}, disp)

	job, err := svc.Submit(context.Background(), domain.SubmitInput{Destination: "Paris", DurationDays: 5})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	disp.runAll()

	got, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatal("completedAt not set on terminal job")
	}
	if got.ErrorMessage != "" {
		t.Fatalf("error set on completed job: %q", got.ErrorMessage)
	}
	if len(got.Itinerary) != 5 {
		t.Fatalf("itinerary days = %d, want 5", len(got.Itinerary))
	}
	seen := map[int]bool{}
	for _, day := range got.Itinerary {
		seen[day.Day] = true
		for _, act := range day.Activities {
			if act.Time == "" || act.Description == "" || act.Location == "" {
				t.Fatalf("activity with empty field: %+v", act)
			}
		}
	}
	for i := 1; i <= 5; i++ {
		if !seen[i] {
			t.Fatalf("missing day %d in itinerary", i)
		}
	}
}

func TestWorkflowRecordsGenerationFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"parse failure", fmt.Errorf("%w: failed to parse itinerary data", domain.ErrParseFailure)},
		{"schema violation", fmt.Errorf("%w: day 2 activity 0 is missing location", domain.ErrSchemaViolation)},
		{"service failure", fmt.Errorf("%w: generation service returned status 503", domain.ErrServiceFailure)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			disp := &manualDispatcher{}
			svc := newTestService(store, stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
				return nil, tc.err
			}}, disp)

			job, err := svc.Submit(context.Background(), domain.SubmitInput{Destination: "Paris", DurationDays: 3})
			if err != nil {
				t.Fatalf("Submit returned error: %v", err)
			}
			disp.runAll()

			got, err := svc.Status(context.Background(), job.ID)
			if err != nil {
				t.Fatalf("Status returned error: %v", err)
			}
			if got.Status != domain.JobStatusFailed {
				t.Fatalf("status = %q, want failed", got.Status)
			}
			if got.ErrorMessage == "" {
				t.Fatal("error message empty on failed job")
			}
			if got.Itinerary != nil {
				t.Fatal("itinerary set on failed job")
			}
			if got.CompletedAt == nil {
				t.Fatal("completedAt not set on failed job")
			}
		})
	}
}

func TestStatusIsIdempotentAfterTerminal(t *testing.T) {
	store := newMemStore()
	disp := &manualDispatcher{}
	svc := newTestService(store, stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
		return makeItinerary(n), nil
	}}, disp)

	job, err := svc.Submit(context.Background(), domain.SubmitInput{Destination: "Rome", DurationDays: 2})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	disp.runAll()

	first, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	firstJSON, _ := json.Marshal(first)
	for i := 0; i < 3; i++ {
		again, err := svc.Status(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		againJSON, _ := json.Marshal(again)
		if !bytes.Equal(firstJSON, againJSON) {
			t.Fatalf("status read %d differs:\n%s\n%s", i, firstJSON, againJSON)
		}
	}
}

func TestSubmitPropagatesStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "create"
	disp := &manualDispatcher{}
	svc := newTestService(store, stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
		t.Fatal("generator must not be called")
		return nil, nil
	}}, disp)

	if _, err := svc.Submit(context.Background(), domain.SubmitInput{Destination: "Paris", DurationDays: 5}); err == nil {
		t.Fatal("expected error when store create fails")
	}
	if len(disp.tasks) != 0 {
		t.Fatalf("tasks dispatched despite create failure: %d", len(disp.tasks))
	}
}

func TestTerminalWriteFailureLeavesJobProcessing(t *testing.T) {
	store := newMemStore()
	disp := &manualDispatcher{}
	svc := newTestService(store, stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
		return makeItinerary(n), nil
	}}, disp)

	job, err := svc.Submit(context.Background(), domain.SubmitInput{Destination: "Oslo", DurationDays: 2})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	store.failOn = "merge"
	disp.runAll()

	got, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if got.Status != domain.JobStatusProcessing {
		t.Fatalf("status = %q, want processing (terminal write was lost)", got.Status)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	svc := newTestService(newMemStore(), stubGenerator{fn: func(ctx context.Context, d string, n int) ([]domain.Day, error) {
		return nil, nil
	}}, &manualDispatcher{})

	if _, err := svc.Status(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestAsyncDispatcherRunsAndRecovers(t *testing.T) {
	d := NewAsyncDispatcher(context.Background(), zerolog.Nop())

	done := make(chan struct{})
	d.Dispatch(func(ctx context.Context) {
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatched task did not run")
	}

	d.Dispatch(func(ctx context.Context) {
		panic("boom")
	})
	if !d.Drain(time.Second) {
		t.Fatal("Drain timed out")
	}
}
