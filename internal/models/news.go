package models

import "time"

// NewsImage is the picture attached to a news story.
type NewsImage struct {
	URL                string `json:"url"`
	TbURL              string `json:"tb_url,omitempty"`
	TbWidth            int    `json:"tb_width,omitempty"`
	TbHeight           int    `json:"tb_height,omitempty"`
	OriginalContextURL string `json:"original_context_url,omitempty"`
	Publisher          string `json:"publisher,omitempty"`
}

// NewsResult is a news story hit.
type NewsResult struct {
	Title             string       `json:"title"`
	TitleNoFormatting string       `json:"title_no_formatting"`
	URL               string       `json:"url"`
	EscapedURL        string       `json:"escaped_url,omitempty"`
	ClusterURL        string       `json:"cluster_url,omitempty"`
	Content           string       `json:"content,omitempty"`
	Publisher         string       `json:"publisher,omitempty"`
	Location          string       `json:"location,omitempty"`
	PublishedDate     time.Time    `json:"published_date,omitempty"`
	Language          string       `json:"language,omitempty"`
	Image             *NewsImage   `json:"image,omitempty"`
	RelatedStories    []NewsResult `json:"related_stories,omitempty"`
}

func (r NewsResult) SearchType() SearchType { return SearchTypeNews }
func (r NewsResult) FormattedTitle() string { return r.Title }
func (r NewsResult) PlainTitle() string     { return r.TitleNoFormatting }
func (r NewsResult) ResultURL() string      { return r.URL }

func (r NewsResult) Thumbnail() (Thumbnail, bool) {
	if r.Image == nil {
		return Thumbnail{}, false
	}
	return thumbnail(r.Image.TbURL, r.Image.TbWidth, r.Image.TbHeight)
}

func (r NewsResult) String() string {
	byline := r.Publisher
	if r.Location != "" {
		byline += " - " + r.Location
	}
	if !r.PublishedDate.IsZero() {
		byline += " - " + r.PublishedDate.Format("Jan 2, 2006")
	}
	return joinLines(r.TitleNoFormatting, byline, r.URL)
}
