package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Activity is a single scheduled item within an itinerary day. Time is kept as
// free text exactly as the model emitted it ("9:00 AM"); nothing downstream
// parses it.
type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Day groups the activities planned for one day of the trip.
type Day struct {
	Day        int        `json:"day"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

// Job encapsulates the lifecycle of one itinerary generation request. A job is
// created in processing, transitions exactly once to completed or failed, and
// is read-only afterwards. When terminal, exactly one of Itinerary and
// ErrorMessage is set; CompletedAt is absent iff the job is still processing.
type Job struct {
	ID           string     `json:"jobId"`
	Status       JobStatus  `json:"status"`
	Destination  string     `json:"destination"`
	DurationDays int        `json:"durationDays"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Itinerary    []Day      `json:"itinerary,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
