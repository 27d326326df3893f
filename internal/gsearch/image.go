package gsearch

import (
	"context"
	"encoding/json"
	"net/url"

	"gsearch/internal/models"
)

// ImageOptions filters an image search. The zero value is unrestricted.
type ImageOptions struct {
	Safe         SafeLevel
	Size         ImageSize
	Colorization Colorization
	Color        ImageColor
	Type         ImageType
	FileType     FileType
	Site         string
}

func (o ImageOptions) params() url.Values {
	params := url.Values{}
	setParam(params, "safe", o.Safe.String())
	setParam(params, "imgsz", o.Size.String())
	setParam(params, "imgc", o.Colorization.String())
	setParam(params, "imgcolor", o.Color.String())
	setParam(params, "imgtype", o.Type.String())
	setParam(params, "as_filetype", o.FileType.String())
	setParam(params, "as_sitesearch", o.Site)
	return params
}

// SearchImages returns up to count image results for query.
func (c *Client) SearchImages(ctx context.Context, query string, count int, opts ImageOptions) ([]models.ImageResult, error) {
	return search(ctx, c, models.SearchTypeImage, query, count, opts.params(), decodeImage)
}

func decodeImage(raw json.RawMessage) (models.ImageResult, error) {
	var payload struct {
		UnescapedURL        string  `json:"unescapedUrl"`
		URL                 string  `json:"url"`
		VisibleURL          string  `json:"visibleUrl"`
		OriginalContextURL  string  `json:"originalContextUrl"`
		Title               string  `json:"title"`
		TitleNoFormatting   string  `json:"titleNoFormatting"`
		Content             string  `json:"content"`
		ContentNoFormatting string  `json:"contentNoFormatting"`
		ImageID             string  `json:"imageId"`
		Width               flexInt `json:"width"`
		Height              flexInt `json:"height"`
		TbURL               string  `json:"tbUrl"`
		TbWidth             flexInt `json:"tbWidth"`
		TbHeight            flexInt `json:"tbHeight"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.ImageResult{}, err
	}
	return models.ImageResult{
		Title:               payload.Title,
		TitleNoFormatting:   payload.TitleNoFormatting,
		URL:                 firstNonEmpty(payload.UnescapedURL, payload.URL),
		EscapedURL:          payload.URL,
		VisibleURL:          payload.VisibleURL,
		OriginalContextURL:  payload.OriginalContextURL,
		Content:             payload.Content,
		ContentNoFormatting: payload.ContentNoFormatting,
		ImageID:             payload.ImageID,
		Width:               int(payload.Width),
		Height:              int(payload.Height),
		TbURL:               payload.TbURL,
		TbWidth:             int(payload.TbWidth),
		TbHeight:            int(payload.TbHeight),
	}, nil
}
