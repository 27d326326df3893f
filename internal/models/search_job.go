package models

import "time"

// SearchJob is a unit of work on the jobs topic.
type SearchJob struct {
	JobID     string        `json:"job_id"`
	Request   SearchRequest `json:"request"`
	CreatedAt time.Time     `json:"created_at"`
}
