package gsearch

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"gsearch/internal/models"
)

// VideoOptions filters a video search. The zero value sorts by relevance.
type VideoOptions struct {
	Sort SortOrder
}

func (o VideoOptions) params() url.Values {
	params := url.Values{}
	setParam(params, "scoring", o.Sort.String())
	return params
}

// SearchVideos returns up to count video results for query.
func (c *Client) SearchVideos(ctx context.Context, query string, count int, opts VideoOptions) ([]models.VideoResult, error) {
	return search(ctx, c, models.SearchTypeVideo, query, count, opts.params(), decodeVideo)
}

func decodeVideo(raw json.RawMessage) (models.VideoResult, error) {
	var payload struct {
		Title             string    `json:"title"`
		TitleNoFormatting string    `json:"titleNoFormatting"`
		URL               string    `json:"url"`
		Content           string    `json:"content"`
		Published         string    `json:"published"`
		Publisher         string    `json:"publisher"`
		Duration          flexInt   `json:"duration"`
		TbURL             string    `json:"tbUrl"`
		TbWidth           flexInt   `json:"tbWidth"`
		TbHeight          flexInt   `json:"tbHeight"`
		PlayURL           string    `json:"playUrl"`
		Author            string    `json:"author"`
		ViewCount         flexInt   `json:"viewCount"`
		Rating            flexFloat `json:"rating"`
		VideoType         string    `json:"videoType"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.VideoResult{}, err
	}
	return models.VideoResult{
		Title:             payload.Title,
		TitleNoFormatting: payload.TitleNoFormatting,
		URL:               payload.URL,
		Content:           payload.Content,
		Published:         parseServiceTime(payload.Published),
		Publisher:         payload.Publisher,
		Duration:          time.Duration(payload.Duration) * time.Second,
		TbURL:             payload.TbURL,
		TbWidth:           int(payload.TbWidth),
		TbHeight:          int(payload.TbHeight),
		PlayURL:           payload.PlayURL,
		Author:            payload.Author,
		ViewCount:         int(payload.ViewCount),
		Rating:            float64(payload.Rating),
		VideoType:         payload.VideoType,
	}, nil
}
