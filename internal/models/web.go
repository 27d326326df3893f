package models

// WebResult is a general web search hit.
type WebResult struct {
	Title             string `json:"title"`
	TitleNoFormatting string `json:"title_no_formatting"`
	URL               string `json:"url"`
	EscapedURL        string `json:"escaped_url,omitempty"`
	VisibleURL        string `json:"visible_url,omitempty"`
	CacheURL          string `json:"cache_url,omitempty"`
	Content           string `json:"content,omitempty"`
}

func (r WebResult) SearchType() SearchType       { return SearchTypeWeb }
func (r WebResult) FormattedTitle() string       { return r.Title }
func (r WebResult) PlainTitle() string           { return r.TitleNoFormatting }
func (r WebResult) ResultURL() string            { return r.URL }
func (r WebResult) Thumbnail() (Thumbnail, bool) { return Thumbnail{}, false }

func (r WebResult) String() string {
	return joinLines(r.TitleNoFormatting, r.Content, r.VisibleURL)
}
