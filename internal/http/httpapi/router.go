package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// RouterConfig carries the request-surface knobs the router needs.
type RouterConfig struct {
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, logger zerolog.Logger, cfg RouterConfig) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer, middleware.Logger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	// Health
	r.Get("/v1/healthz", app.Health)

	generate := r.With()
	if cfg.RateLimitPerMin > 0 {
		generate = r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
	}
	generate.Post("/generate", app.Generate)

	r.Get("/itineraries/{job_id}", app.ItineraryStatus)

	return r
}
