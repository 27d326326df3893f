package models

import "fmt"

// ImageResult is an image search hit.
type ImageResult struct {
	Title               string `json:"title"`
	TitleNoFormatting   string `json:"title_no_formatting"`
	URL                 string `json:"url"`
	EscapedURL          string `json:"escaped_url,omitempty"`
	VisibleURL          string `json:"visible_url,omitempty"`
	OriginalContextURL  string `json:"original_context_url,omitempty"`
	Content             string `json:"content,omitempty"`
	ContentNoFormatting string `json:"content_no_formatting,omitempty"`
	ImageID             string `json:"image_id,omitempty"`
	Width               int    `json:"width,omitempty"`
	Height              int    `json:"height,omitempty"`
	TbURL               string `json:"tb_url,omitempty"`
	TbWidth             int    `json:"tb_width,omitempty"`
	TbHeight            int    `json:"tb_height,omitempty"`
}

func (r ImageResult) SearchType() SearchType { return SearchTypeImage }
func (r ImageResult) FormattedTitle() string { return r.Title }
func (r ImageResult) PlainTitle() string     { return r.TitleNoFormatting }
func (r ImageResult) ResultURL() string      { return r.URL }

func (r ImageResult) Thumbnail() (Thumbnail, bool) {
	return thumbnail(r.TbURL, r.TbWidth, r.TbHeight)
}

// String renders content, dimensions with title, and the visible URL on three lines.
func (r ImageResult) String() string {
	return fmt.Sprintf("%s\n%d x %d - %s\n%s", r.Content, r.Width, r.Height, r.TitleNoFormatting, r.VisibleURL)
}
