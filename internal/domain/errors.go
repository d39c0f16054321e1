package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Generation failures. These never reach an HTTP caller directly; they are
	// recorded on the job and observed through status polling.
	ErrParseFailure    = errors.New("itinerary parse failure")
	ErrSchemaViolation = errors.New("itinerary schema violation")
	ErrServiceFailure  = errors.New("generation service failure")
)

// IsGenerationError reports whether err belongs to the generation taxonomy, as
// opposed to input or persistence problems.
func IsGenerationError(err error) bool {
	return errors.Is(err, ErrParseFailure) ||
		errors.Is(err, ErrSchemaViolation) ||
		errors.Is(err, ErrServiceFailure)
}
