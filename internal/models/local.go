package models

import "strings"

// Static map images attached to local results have a fixed size.
const (
	StaticMapWidth  = 150
	StaticMapHeight = 100
)

// LocalResult is a local business listing, geocode, or KML hit.
type LocalResult struct {
	Title             string        `json:"title"`
	TitleNoFormatting string        `json:"title_no_formatting"`
	URL               string        `json:"url"`
	ViewportMode      string        `json:"viewport_mode,omitempty"`
	Latitude          float64       `json:"lat"`
	Longitude         float64       `json:"lng"`
	Accuracy          int           `json:"accuracy,omitempty"`
	StreetAddress     string        `json:"street_address,omitempty"`
	City              string        `json:"city,omitempty"`
	Region            string        `json:"region,omitempty"`
	Country           string        `json:"country,omitempty"`
	PhoneNumbers      []PhoneNumber `json:"phone_numbers,omitempty"`
	AddressLines      []string      `json:"address_lines,omitempty"`
	DirectionsURL     string        `json:"directions_url,omitempty"`
	ToHereURL         string        `json:"to_here_url,omitempty"`
	FromHereURL       string        `json:"from_here_url,omitempty"`
	StaticMapURL      string        `json:"static_map_url,omitempty"`
	// ListingType is "local" for business listings and geocodes, "kml" for KML listings.
	ListingType string `json:"listing_type,omitempty"`
	// Content is only populated for KML listings.
	Content string `json:"content,omitempty"`
	MaxAge  int    `json:"max_age,omitempty"`
}

func (r LocalResult) SearchType() SearchType { return SearchTypeLocal }
func (r LocalResult) FormattedTitle() string { return r.Title }
func (r LocalResult) PlainTitle() string     { return r.TitleNoFormatting }
func (r LocalResult) ResultURL() string      { return r.URL }

// Thumbnail returns the static map image for the listing.
func (r LocalResult) Thumbnail() (Thumbnail, bool) {
	return r.StaticMap()
}

// StaticMap returns the 150x100 map image with a single marker on the result.
func (r LocalResult) StaticMap() (Thumbnail, bool) {
	return thumbnail(r.StaticMapURL, StaticMapWidth, StaticMapHeight)
}

// String renders the listing the way it would appear on an address label:
// title, street, "city, region", then one phone number per line.
func (r LocalResult) String() string {
	var sb strings.Builder
	sb.WriteString(r.TitleNoFormatting)
	if r.StreetAddress != "" {
		sb.WriteString("\n" + r.StreetAddress)
	}
	switch {
	case r.City != "":
		sb.WriteString("\n" + r.City)
		if r.Region != "" {
			sb.WriteString(", " + r.Region)
		}
	case r.Region != "":
		sb.WriteString("\n" + r.Region)
	}
	for _, phone := range r.PhoneNumbers {
		sb.WriteString("\n" + phone.String())
	}
	return sb.String()
}
