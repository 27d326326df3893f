package gsearch

import (
	"context"
	"encoding/json"
	"net/url"

	"gsearch/internal/models"
)

// NewsOptions filters a news search. Location and Edition are free text
// ("Seattle", "uk") passed through as-is.
type NewsOptions struct {
	Sort     SortOrder
	Topic    NewsTopic
	Location string
	Edition  string
}

func (o NewsOptions) params() url.Values {
	params := url.Values{}
	setParam(params, "scoring", o.Sort.String())
	setParam(params, "topic", o.Topic.String())
	setParam(params, "geo", o.Location)
	setParam(params, "ned", o.Edition)
	return params
}

// SearchNews returns up to count news stories for query.
func (c *Client) SearchNews(ctx context.Context, query string, count int, opts NewsOptions) ([]models.NewsResult, error) {
	return search(ctx, c, models.SearchTypeNews, query, count, opts.params(), decodeNews)
}

type newsPayload struct {
	Title             string        `json:"title"`
	TitleNoFormatting string        `json:"titleNoFormatting"`
	UnescapedURL      string        `json:"unescapedUrl"`
	URL               string        `json:"url"`
	ClusterURL        string        `json:"clusterUrl"`
	Content           string        `json:"content"`
	Publisher         string        `json:"publisher"`
	Location          string        `json:"location"`
	PublishedDate     string        `json:"publishedDate"`
	Language          string        `json:"language"`
	Image             *struct {
		URL                string  `json:"url"`
		TbURL              string  `json:"tbUrl"`
		TbWidth            flexInt `json:"tbWidth"`
		TbHeight           flexInt `json:"tbHeight"`
		OriginalContextURL string  `json:"originalContextUrl"`
		Publisher          string  `json:"publisher"`
	} `json:"image"`
	RelatedStories []newsPayload `json:"relatedStories"`
}

func (p newsPayload) toModel() models.NewsResult {
	result := models.NewsResult{
		Title:             p.Title,
		TitleNoFormatting: p.TitleNoFormatting,
		URL:               firstNonEmpty(p.UnescapedURL, p.URL),
		EscapedURL:        p.URL,
		ClusterURL:        p.ClusterURL,
		Content:           p.Content,
		Publisher:         p.Publisher,
		Location:          p.Location,
		PublishedDate:     parseServiceTime(p.PublishedDate),
		Language:          p.Language,
	}
	if p.Image != nil {
		result.Image = &models.NewsImage{
			URL:                p.Image.URL,
			TbURL:              p.Image.TbURL,
			TbWidth:            int(p.Image.TbWidth),
			TbHeight:           int(p.Image.TbHeight),
			OriginalContextURL: p.Image.OriginalContextURL,
			Publisher:          p.Image.Publisher,
		}
	}
	for _, related := range p.RelatedStories {
		result.RelatedStories = append(result.RelatedStories, related.toModel())
	}
	return result
}

func decodeNews(raw json.RawMessage) (models.NewsResult, error) {
	var payload newsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.NewsResult{}, err
	}
	return payload.toModel(), nil
}
