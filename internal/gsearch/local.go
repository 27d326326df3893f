package gsearch

import (
	"context"
	"encoding/json"
	"net/url"

	"gsearch/internal/models"
)

// LocalOptions filters a local search. A nil Center lets the service pick one.
type LocalOptions struct {
	Center     *LatLng
	ResultType LocalResultType
}

func (o LocalOptions) params() url.Values {
	params := url.Values{}
	if o.Center != nil {
		params.Set("sll", o.Center.String())
	}
	setParam(params, "mrt", o.ResultType.String())
	return params
}

// SearchLocal returns up to count local listings for query.
func (c *Client) SearchLocal(ctx context.Context, query string, count int, opts LocalOptions) ([]models.LocalResult, error) {
	return search(ctx, c, models.SearchTypeLocal, query, count, opts.params(), decodeLocal)
}

func decodeLocal(raw json.RawMessage) (models.LocalResult, error) {
	var payload struct {
		Title             string    `json:"title"`
		TitleNoFormatting string    `json:"titleNoFormatting"`
		URL               string    `json:"url"`
		ViewportMode      string    `json:"viewportmode"`
		Lat               flexFloat `json:"lat"`
		Lng               flexFloat `json:"lng"`
		Accuracy          flexInt   `json:"accuracy"`
		StreetAddress     string    `json:"streetAddress"`
		City              string    `json:"city"`
		Region            string    `json:"region"`
		Country           string    `json:"country"`
		PhoneNumbers      []struct {
			Type   string `json:"type"`
			Number string `json:"number"`
		} `json:"phoneNumbers"`
		AddressLines  []string `json:"addressLines"`
		DDURL         string   `json:"ddUrl"`
		DDURLToHere   string   `json:"ddUrlToHere"`
		DDURLFromHere string   `json:"ddUrlFromHere"`
		StaticMapURL  string   `json:"staticMapUrl"`
		ListingType   string   `json:"listingType"`
		Content       string   `json:"content"`
		MaxAge        flexInt  `json:"maxAge"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.LocalResult{}, err
	}

	result := models.LocalResult{
		Title:             payload.Title,
		TitleNoFormatting: payload.TitleNoFormatting,
		URL:               payload.URL,
		ViewportMode:      payload.ViewportMode,
		Latitude:          float64(payload.Lat),
		Longitude:         float64(payload.Lng),
		Accuracy:          int(payload.Accuracy),
		StreetAddress:     payload.StreetAddress,
		City:              payload.City,
		Region:            payload.Region,
		Country:           payload.Country,
		AddressLines:      payload.AddressLines,
		DirectionsURL:     payload.DDURL,
		ToHereURL:         payload.DDURLToHere,
		FromHereURL:       payload.DDURLFromHere,
		StaticMapURL:      payload.StaticMapURL,
		ListingType:       payload.ListingType,
		Content:           payload.Content,
		MaxAge:            int(payload.MaxAge),
	}
	for _, phone := range payload.PhoneNumbers {
		if phone.Number == "" {
			continue
		}
		result.PhoneNumbers = append(result.PhoneNumbers, models.PhoneNumber{
			Type:   models.ParsePhoneType(phone.Type),
			Number: phone.Number,
		})
	}
	return result, nil
}
