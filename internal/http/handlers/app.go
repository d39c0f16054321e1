package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// ItineraryAPI is the orchestrator surface the HTTP layer depends on.
type ItineraryAPI interface {
	Submit(ctx context.Context, in domain.SubmitInput) (*domain.Job, error)
	Status(ctx context.Context, jobID string) (*domain.Job, error)
}

// App bundles handler dependencies.
type App struct {
	Service ItineraryAPI
	Logger  zerolog.Logger
}

func NewApp(svc ItineraryAPI, logger zerolog.Logger) *App {
	return &App{Service: svc, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
