package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decoding envelopes with pointer fields so a missing key is distinguishable
// from a zero value. Validation is strict and total: one invalid element
// rejects the whole itinerary.
type dayEnvelope struct {
	Day        *int               `json:"day"`
	Theme      *string            `json:"theme"`
	Activities []activityEnvelope `json:"activities"`
}

type activityEnvelope struct {
	Time        *string `json:"time"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

// ParseItinerary decodes and validates an untrusted itinerary payload.
// Syntactically invalid JSON wraps ErrParseFailure; structurally invalid
// content wraps ErrSchemaViolation with a positional message. Day numbers must
// be positive and unique, but a range other than 1..N is left to the caller to
// judge (see ContiguousRange).
func ParseItinerary(raw []byte) ([]Day, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: failed to parse itinerary data", ErrParseFailure)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: top-level value is not an array", ErrSchemaViolation)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: itinerary has no days", ErrSchemaViolation)
	}

	days := make([]Day, 0, len(elems))
	seen := make(map[int]struct{}, len(elems))
	for i, elem := range elems {
		var env dayEnvelope
		if err := json.Unmarshal(elem, &env); err != nil {
			return nil, fmt.Errorf("%w: element %d is not a valid day object", ErrSchemaViolation, i)
		}
		day, err := env.toDay(i)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[day.Day]; dup {
			return nil, fmt.Errorf("%w: duplicate day number %d", ErrSchemaViolation, day.Day)
		}
		seen[day.Day] = struct{}{}
		days = append(days, day)
	}
	return days, nil
}

func (env dayEnvelope) toDay(idx int) (Day, error) {
	if env.Day == nil {
		return Day{}, fmt.Errorf("%w: element %d is missing day", ErrSchemaViolation, idx)
	}
	if *env.Day <= 0 {
		return Day{}, fmt.Errorf("%w: element %d has non-positive day %d", ErrSchemaViolation, idx, *env.Day)
	}
	if blank(env.Theme) {
		return Day{}, fmt.Errorf("%w: day %d is missing theme", ErrSchemaViolation, *env.Day)
	}
	if len(env.Activities) == 0 {
		return Day{}, fmt.Errorf("%w: day %d has no activities", ErrSchemaViolation, *env.Day)
	}

	activities := make([]Activity, 0, len(env.Activities))
	for j, act := range env.Activities {
		switch {
		case blank(act.Time):
			return Day{}, fmt.Errorf("%w: day %d activity %d is missing time", ErrSchemaViolation, *env.Day, j)
		case blank(act.Description):
			return Day{}, fmt.Errorf("%w: day %d activity %d is missing description", ErrSchemaViolation, *env.Day, j)
		case blank(act.Location):
			return Day{}, fmt.Errorf("%w: day %d activity %d is missing location", ErrSchemaViolation, *env.Day, j)
		}
		activities = append(activities, Activity{
			Time:        *act.Time,
			Description: *act.Description,
			Location:    *act.Location,
		})
	}
	return Day{Day: *env.Day, Theme: *env.Theme, Activities: activities}, nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// ContiguousRange reports whether the itinerary covers exactly days 1..n.
// Validation does not enforce this; the orchestrator only logs a mismatch.
func ContiguousRange(days []Day, n int) bool {
	if len(days) != n {
		return false
	}
	covered := make(map[int]struct{}, len(days))
	for _, d := range days {
		covered[d.Day] = struct{}{}
	}
	for i := 1; i <= n; i++ {
		if _, ok := covered[i]; !ok {
			return false
		}
	}
	return true
}
