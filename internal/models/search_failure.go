package models

import "time"

// SearchFailure captures a failed search job for the DLQ.
// Offset and PageSize identify the page that failed when the failure was a fetch.
type SearchFailure struct {
	JobID    string        `json:"job_id"`
	Request  SearchRequest `json:"request"`
	Error    string        `json:"error"`
	Offset   *int          `json:"offset,omitempty"`
	PageSize *int          `json:"page_size,omitempty"`
	FailedAt time.Time     `json:"failed_at"`
}
