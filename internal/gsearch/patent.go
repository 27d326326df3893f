package gsearch

import (
	"context"
	"encoding/json"
	"net/url"

	"gsearch/internal/models"
)

// PatentOptions filters a patent search. The zero value is unrestricted.
type PatentOptions struct {
	Sort   SortOrder
	Status PatentFilter
}

func (o PatentOptions) params() url.Values {
	params := url.Values{}
	setParam(params, "scoring", o.Sort.String())
	switch o.Status {
	case PatentsIssuedOnly:
		params.Set("as_psrg", "1")
	case PatentsFiledOnly:
		params.Set("as_psra", "1")
	}
	return params
}

// SearchPatents returns up to count patents for query.
func (c *Client) SearchPatents(ctx context.Context, query string, count int, opts PatentOptions) ([]models.PatentResult, error) {
	return search(ctx, c, models.SearchTypePatent, query, count, opts.params(), decodePatent)
}

func decodePatent(raw json.RawMessage) (models.PatentResult, error) {
	var payload struct {
		Title             string `json:"title"`
		TitleNoFormatting string `json:"titleNoFormatting"`
		UnescapedURL      string `json:"unescapedUrl"`
		URL               string `json:"url"`
		Content           string `json:"content"`
		ApplicationDate   string `json:"applicationDate"`
		PatentNumber      string `json:"patentNumber"`
		PatentStatus      string `json:"patentStatus"`
		Assignee          string `json:"assignee"`
		TbURL             string `json:"tbUrl"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.PatentResult{}, err
	}
	return models.PatentResult{
		Title:             payload.Title,
		TitleNoFormatting: payload.TitleNoFormatting,
		URL:               firstNonEmpty(payload.UnescapedURL, payload.URL),
		EscapedURL:        payload.URL,
		Content:           payload.Content,
		ApplicationDate:   parseServiceTime(payload.ApplicationDate),
		PatentNumber:      payload.PatentNumber,
		PatentStatus:      models.ParsePatentStatus(payload.PatentStatus),
		Assignee:          payload.Assignee,
		TbURL:             payload.TbURL,
	}, nil
}
