package models

import "strings"

// SearchType names a search endpoint and the result schema it returns.
type SearchType string

const (
	SearchTypeWeb    SearchType = "web"
	SearchTypeImage  SearchType = "image"
	SearchTypeLocal  SearchType = "local"
	SearchTypeVideo  SearchType = "video"
	SearchTypeNews   SearchType = "news"
	SearchTypePatent SearchType = "patent"
	SearchTypeBook   SearchType = "book"
)

// SearchTypes lists every supported search type.
var SearchTypes = []SearchType{
	SearchTypeWeb,
	SearchTypeImage,
	SearchTypeLocal,
	SearchTypeVideo,
	SearchTypeNews,
	SearchTypePatent,
	SearchTypeBook,
}

// ParseSearchType maps user text (including common plurals) to a SearchType.
func ParseSearchType(s string) (SearchType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web":
		return SearchTypeWeb, true
	case "image", "images":
		return SearchTypeImage, true
	case "local", "map", "maps":
		return SearchTypeLocal, true
	case "video", "videos":
		return SearchTypeVideo, true
	case "news":
		return SearchTypeNews, true
	case "patent", "patents":
		return SearchTypePatent, true
	case "book", "books":
		return SearchTypeBook, true
	default:
		return "", false
	}
}

// Item is a single search result of any type.
type Item interface {
	SearchType() SearchType
	// FormattedTitle may contain inline HTML markup such as <b>.
	FormattedTitle() string
	PlainTitle() string
	ResultURL() string
	Thumbnail() (Thumbnail, bool)
	String() string
}

// Thumbnail is a small preview image attached to a result.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

func thumbnail(url string, width, height int) (Thumbnail, bool) {
	if url == "" {
		return Thumbnail{}, false
	}
	return Thumbnail{URL: url, Width: width, Height: height}, true
}
