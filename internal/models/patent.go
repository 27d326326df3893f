package models

import (
	"strings"
	"time"
)

// PatentStatus is the lifecycle state of a patent result.
type PatentStatus string

const (
	PatentStatusFiled   PatentStatus = "filed"
	PatentStatusIssued  PatentStatus = "issued"
	PatentStatusUnknown PatentStatus = "unknown"
)

// ParsePatentStatus decodes the service literal; anything unrecognized is PatentStatusUnknown.
func ParsePatentStatus(s string) PatentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "filed":
		return PatentStatusFiled
	case "issued":
		return PatentStatusIssued
	default:
		return PatentStatusUnknown
	}
}

// PatentResult is a patent search hit.
type PatentResult struct {
	Title             string       `json:"title"`
	TitleNoFormatting string       `json:"title_no_formatting"`
	URL               string       `json:"url"`
	EscapedURL        string       `json:"escaped_url,omitempty"`
	Content           string       `json:"content,omitempty"`
	ApplicationDate   time.Time    `json:"application_date,omitempty"`
	PatentNumber      string       `json:"patent_number,omitempty"`
	PatentStatus      PatentStatus `json:"patent_status,omitempty"`
	Assignee          string       `json:"assignee,omitempty"`
	TbURL             string       `json:"tb_url,omitempty"`
}

func (r PatentResult) SearchType() SearchType { return SearchTypePatent }
func (r PatentResult) FormattedTitle() string { return r.Title }
func (r PatentResult) PlainTitle() string     { return r.TitleNoFormatting }
func (r PatentResult) ResultURL() string      { return r.URL }

func (r PatentResult) Thumbnail() (Thumbnail, bool) {
	return thumbnail(r.TbURL, 0, 0)
}

func (r PatentResult) String() string {
	header := r.TitleNoFormatting
	if r.PatentNumber != "" {
		header += " (" + r.PatentNumber + ")"
	}
	meta := string(r.PatentStatus)
	if r.Assignee != "" {
		meta += " - " + r.Assignee
	}
	return joinLines(header, meta, r.URL)
}
