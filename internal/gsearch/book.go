package gsearch

import (
	"context"
	"encoding/json"
	"net/url"

	"gsearch/internal/models"
)

// BookOptions filters a book search. Library is a user library (list) id.
type BookOptions struct {
	FullViewOnly bool
	Library      string
}

func (o BookOptions) params() url.Values {
	params := url.Values{}
	if o.FullViewOnly {
		params.Set("as_brr", "1")
	}
	setParam(params, "as_list", o.Library)
	return params
}

// SearchBooks returns up to count books for query.
func (c *Client) SearchBooks(ctx context.Context, query string, count int, opts BookOptions) ([]models.BookResult, error) {
	return search(ctx, c, models.SearchTypeBook, query, count, opts.params(), decodeBook)
}

func decodeBook(raw json.RawMessage) (models.BookResult, error) {
	var payload struct {
		Title             string  `json:"title"`
		TitleNoFormatting string  `json:"titleNoFormatting"`
		UnescapedURL      string  `json:"unescapedUrl"`
		URL               string  `json:"url"`
		Authors           string  `json:"authors"`
		BookID            string  `json:"bookId"`
		PublishedYear     flexInt `json:"publishedYear"`
		PageCount         flexInt `json:"pageCount"`
		TbURL             string  `json:"tbUrl"`
		TbWidth           flexInt `json:"tbWidth"`
		TbHeight          flexInt `json:"tbHeight"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.BookResult{}, err
	}
	return models.BookResult{
		Title:             payload.Title,
		TitleNoFormatting: payload.TitleNoFormatting,
		URL:               firstNonEmpty(payload.UnescapedURL, payload.URL),
		EscapedURL:        payload.URL,
		Authors:           payload.Authors,
		BookID:            payload.BookID,
		PublishedYear:     int(payload.PublishedYear),
		PageCount:         int(payload.PageCount),
		TbURL:             payload.TbURL,
		TbWidth:           int(payload.TbWidth),
		TbHeight:          int(payload.TbHeight),
	}, nil
}
