package models

import "strconv"

// BookResult is a book search hit.
type BookResult struct {
	Title             string `json:"title"`
	TitleNoFormatting string `json:"title_no_formatting"`
	URL               string `json:"url"`
	EscapedURL        string `json:"escaped_url,omitempty"`
	Authors           string `json:"authors,omitempty"`
	BookID            string `json:"book_id,omitempty"`
	PublishedYear     int    `json:"published_year,omitempty"`
	PageCount         int    `json:"page_count,omitempty"`
	TbURL             string `json:"tb_url,omitempty"`
	TbWidth           int    `json:"tb_width,omitempty"`
	TbHeight          int    `json:"tb_height,omitempty"`
}

func (r BookResult) SearchType() SearchType { return SearchTypeBook }
func (r BookResult) FormattedTitle() string { return r.Title }
func (r BookResult) PlainTitle() string     { return r.TitleNoFormatting }
func (r BookResult) ResultURL() string      { return r.URL }

func (r BookResult) Thumbnail() (Thumbnail, bool) {
	return thumbnail(r.TbURL, r.TbWidth, r.TbHeight)
}

func (r BookResult) String() string {
	meta := r.Authors
	if r.PublishedYear > 0 {
		if meta != "" {
			meta += " - "
		}
		meta += strconv.Itoa(r.PublishedYear)
	}
	if r.PageCount > 0 {
		if meta != "" {
			meta += " - "
		}
		meta += strconv.Itoa(r.PageCount) + " pages"
	}
	return joinLines(r.TitleNoFormatting, meta, r.URL)
}
