package domain

import "time"

// BatchOutcome accumulates the result of one import run. Counts only
// increase while the run is in flight; the Chunked Submitter is the only
// writer.
type BatchOutcome struct {
	JobID     string     `json:"job_id"`
	Kind      EntityKind `json:"kind"`
	TotalRows int        `json:"total_rows"`
	Accepted  int        `json:"accepted"`
	Created   int        `json:"created"`
	Skipped   int        `json:"skipped"`
	Truncated int        `json:"truncated"`
	Errors    []string   `json:"errors,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Progress is one snapshot emitted after each submitted chunk.
type Progress struct {
	JobID     string    `json:"job_id"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Created   int       `json:"created"`
	Skipped   int       `json:"skipped"`
	UpdatedAt time.Time `json:"updated_at"`
}
