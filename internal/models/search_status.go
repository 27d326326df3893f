package models

import "time"

// Job states recorded in the status store.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// SearchStatus tracks the state of a search job.
type SearchStatus struct {
	JobID       string        `json:"job_id"`
	Request     SearchRequest `json:"request"`
	Status      string        `json:"status"`
	ResultCount int           `json:"result_count,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty"`
}
