package gsearch

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// envelope is the wrapper every endpoint returns around its results.
type envelope struct {
	ResponseData    *responseData `json:"responseData"`
	ResponseDetails *string       `json:"responseDetails"`
	ResponseStatus  flexInt       `json:"responseStatus"`
}

type responseData struct {
	Results []json.RawMessage `json:"results"`
	Cursor  struct {
		EstimatedResultCount flexInt `json:"estimatedResultCount"`
		CurrentPageIndex     flexInt `json:"currentPageIndex"`
		MoreResultsURL       string  `json:"moreResultsUrl"`
	} `json:"cursor"`
}

func (e envelope) details() string {
	if e.ResponseDetails == nil {
		return ""
	}
	return *e.ResponseDetails
}

// flexInt decodes a JSON number or a numeric string. Anything else is 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	f, ok := parseFlexNumber(data)
	if !ok {
		*n = 0
		return nil
	}
	*n = flexInt(f)
	return nil
}

// flexFloat decodes a JSON number or a numeric string. Anything else is 0.
type flexFloat float64

func (n *flexFloat) UnmarshalJSON(data []byte) error {
	f, ok := parseFlexNumber(data)
	if !ok {
		*n = 0
		return nil
	}
	*n = flexFloat(f)
	return nil
}

func parseFlexNumber(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}
	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false
		}
		text = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	if text == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var serviceTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02",
	"Jan 2, 2006",
}

// parseServiceTime accepts the date formats the service uses. Unparseable
// text yields the zero time.
func parseServiceTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range serviceTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
