package models

import (
	"fmt"
	"time"
)

// VideoResult is a video search hit.
type VideoResult struct {
	Title             string        `json:"title"`
	TitleNoFormatting string        `json:"title_no_formatting"`
	URL               string        `json:"url"`
	Content           string        `json:"content,omitempty"`
	Published         time.Time     `json:"published,omitempty"`
	Publisher         string        `json:"publisher,omitempty"`
	Duration          time.Duration `json:"duration,omitempty"`
	TbURL             string        `json:"tb_url,omitempty"`
	TbWidth           int           `json:"tb_width,omitempty"`
	TbHeight          int           `json:"tb_height,omitempty"`
	PlayURL           string        `json:"play_url,omitempty"`
	Author            string        `json:"author,omitempty"`
	ViewCount         int           `json:"view_count,omitempty"`
	Rating            float64       `json:"rating,omitempty"`
	VideoType         string        `json:"video_type,omitempty"`
}

func (r VideoResult) SearchType() SearchType { return SearchTypeVideo }
func (r VideoResult) FormattedTitle() string { return r.Title }
func (r VideoResult) PlainTitle() string     { return r.TitleNoFormatting }
func (r VideoResult) ResultURL() string      { return r.URL }

func (r VideoResult) Thumbnail() (Thumbnail, bool) {
	return thumbnail(r.TbURL, r.TbWidth, r.TbHeight)
}

func (r VideoResult) String() string {
	meta := r.Publisher
	if r.Duration > 0 {
		if meta != "" {
			meta += " - "
		}
		meta += fmt.Sprint(r.Duration)
	}
	return joinLines(r.TitleNoFormatting, meta, r.URL)
}
