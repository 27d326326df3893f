package models

// SearchRequest is a serializable search invocation: a type, query text,
// desired result count, and the type's filters as flat key/value pairs.
type SearchRequest struct {
	Type    SearchType        `json:"type"`
	Query   string            `json:"query"`
	Count   int               `json:"count"`
	Filters map[string]string `json:"filters,omitempty"`
}
