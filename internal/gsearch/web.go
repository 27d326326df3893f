package gsearch

import (
	"context"
	"encoding/json"
	"net/url"

	"gsearch/internal/models"
)

// WebOptions filters a web search. The zero value is unrestricted.
type WebOptions struct {
	Safe       SafeLevel
	Language   Language
	Site       string
	Duplicates DuplicateFilter
}

func (o WebOptions) params() url.Values {
	params := url.Values{}
	setParam(params, "safe", o.Safe.String())
	setParam(params, "lr", o.Language.String())
	setParam(params, "as_sitesearch", o.Site)
	setParam(params, "filter", o.Duplicates.String())
	return params
}

// SearchWeb returns up to count web results for query.
func (c *Client) SearchWeb(ctx context.Context, query string, count int, opts WebOptions) ([]models.WebResult, error) {
	return search(ctx, c, models.SearchTypeWeb, query, count, opts.params(), decodeWeb)
}

func decodeWeb(raw json.RawMessage) (models.WebResult, error) {
	var payload struct {
		UnescapedURL      string `json:"unescapedUrl"`
		URL               string `json:"url"`
		VisibleURL        string `json:"visibleUrl"`
		CacheURL          string `json:"cacheUrl"`
		Title             string `json:"title"`
		TitleNoFormatting string `json:"titleNoFormatting"`
		Content           string `json:"content"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.WebResult{}, err
	}
	return models.WebResult{
		Title:             payload.Title,
		TitleNoFormatting: payload.TitleNoFormatting,
		URL:               firstNonEmpty(payload.UnescapedURL, payload.URL),
		EscapedURL:        payload.URL,
		VisibleURL:        payload.VisibleURL,
		CacheURL:          payload.CacheURL,
		Content:           payload.Content,
	}, nil
}
