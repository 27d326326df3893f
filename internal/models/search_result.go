package models

import (
	"encoding/json"
	"time"
)

// ResultRecord is one ranked item in a published result message.
// Detail holds the full typed item as JSON.
type ResultRecord struct {
	Rank         int             `json:"rank"`
	Type         SearchType      `json:"type"`
	Title        string          `json:"title"`
	PlainTitle   string          `json:"plain_title"`
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
}

// SearchResult is the payload written to the results topic.
type SearchResult struct {
	JobID       string         `json:"job_id"`
	Request     SearchRequest  `json:"request"`
	Items       []ResultRecord `json:"items"`
	CompletedAt time.Time      `json:"completed_at"`
}

// NewResultRecord flattens an item into a record; rank is 1-based.
func NewResultRecord(rank int, item Item) (ResultRecord, error) {
	detail, err := json.Marshal(item)
	if err != nil {
		return ResultRecord{}, err
	}
	record := ResultRecord{
		Rank:       rank,
		Type:       item.SearchType(),
		Title:      item.FormattedTitle(),
		PlainTitle: item.PlainTitle(),
		URL:        item.ResultURL(),
		Detail:     detail,
	}
	if tb, ok := item.Thumbnail(); ok {
		record.ThumbnailURL = tb.URL
	}
	return record, nil
}

// NewSearchResult marshals a result payload for a finished job.
func NewSearchResult(job SearchJob, items []Item) ([]byte, error) {
	result := SearchResult{
		JobID:       job.JobID,
		Request:     job.Request,
		Items:       make([]ResultRecord, 0, len(items)),
		CompletedAt: time.Now().UTC(),
	}
	for i, item := range items {
		record, err := NewResultRecord(i+1, item)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, record)
	}
	return json.Marshal(result)
}
