package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type generateRequest struct {
	Destination  string `json:"destination"`
	DurationDays int    `json:"durationDays"`
}

type generateResponse struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	StatusURL string `json:"statusUrl"`
}

// Generate accepts a new itinerary request and answers 202 with the job id
// before any generation work happens. Clients poll the status URL until the
// job reaches a terminal state.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := a.Service.Submit(r.Context(), domain.SubmitInput{
		Destination:  req.Destination,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("failed to create job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		return
	}

	a.json(w, http.StatusAccepted, generateResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		StatusURL: "/itineraries/" + job.ID,
	})
}

// ItineraryStatus returns the current job document.
func (a *App) ItineraryStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}

	job, err := a.Service.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("failed to load job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	a.json(w, http.StatusOK, job)
}
