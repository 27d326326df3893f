package gsearch

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"gsearch/internal/models"
	"gsearch/internal/paging"
)

// Searcher runs a type-dispatched search for the pipeline binaries.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) ([]models.Item, error)
}

var _ Searcher = (*Client)(nil)

// Search validates req, converts its filter bag into typed options, and
// runs the matching adapter.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) ([]models.Item, error) {
	opts, err := parseRequest(req)
	if err != nil {
		return nil, err
	}
	switch o := opts.(type) {
	case WebOptions:
		return toItems(c.SearchWeb(ctx, req.Query, req.Count, o))
	case ImageOptions:
		return toItems(c.SearchImages(ctx, req.Query, req.Count, o))
	case LocalOptions:
		return toItems(c.SearchLocal(ctx, req.Query, req.Count, o))
	case VideoOptions:
		return toItems(c.SearchVideos(ctx, req.Query, req.Count, o))
	case NewsOptions:
		return toItems(c.SearchNews(ctx, req.Query, req.Count, o))
	case PatentOptions:
		return toItems(c.SearchPatents(ctx, req.Query, req.Count, o))
	case BookOptions:
		return toItems(c.SearchBooks(ctx, req.Query, req.Count, o))
	default:
		return nil, paging.InvalidArgument("type", fmt.Sprintf("unsupported search type %q", req.Type))
	}
}

// ValidateRequest checks req without performing any I/O.
func ValidateRequest(req models.SearchRequest) error {
	_, err := parseRequest(req)
	return err
}

func parseRequest(req models.SearchRequest) (any, error) {
	if _, ok := endpoints[req.Type]; !ok {
		return nil, paging.InvalidArgument("type", fmt.Sprintf("unsupported search type %q", req.Type))
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, paging.InvalidArgument("query", "must not be empty")
	}
	if req.Count <= 0 {
		return nil, paging.InvalidArgument("count", "must be positive")
	}
	return ParseFilters(req.Type, req.Filters)
}

// FilterKeys lists the filter bag keys each search type accepts.
var FilterKeys = map[models.SearchType][]string{
	models.SearchTypeWeb:    {"safe", "lang", "site", "dedupe"},
	models.SearchTypeImage:  {"safe", "size", "colorization", "color", "image_type", "file_type", "site"},
	models.SearchTypeLocal:  {"center", "result_type"},
	models.SearchTypeVideo:  {"sort"},
	models.SearchTypeNews:   {"sort", "topic", "location", "edition"},
	models.SearchTypePatent: {"sort", "status"},
	models.SearchTypeBook:   {"full_view", "library"},
}

// ParseFilters converts a string filter bag into the options struct for
// searchType. Unknown keys and unrecognized values are rejected.
func ParseFilters(searchType models.SearchType, filters map[string]string) (any, error) {
	if err := checkFilterKeys(searchType, filters); err != nil {
		return nil, err
	}
	var err error
	switch searchType {
	case models.SearchTypeWeb:
		var o WebOptions
		if o.Safe, err = ParseSafeLevel(filters["safe"]); err != nil {
			return nil, err
		}
		if o.Language, err = ParseLanguage(filters["lang"]); err != nil {
			return nil, err
		}
		if o.Duplicates, err = ParseDuplicateFilter(filters["dedupe"]); err != nil {
			return nil, err
		}
		o.Site = strings.TrimSpace(filters["site"])
		return o, nil
	case models.SearchTypeImage:
		var o ImageOptions
		if o.Safe, err = ParseSafeLevel(filters["safe"]); err != nil {
			return nil, err
		}
		if o.Size, err = ParseImageSize(filters["size"]); err != nil {
			return nil, err
		}
		if o.Colorization, err = ParseColorization(filters["colorization"]); err != nil {
			return nil, err
		}
		if o.Color, err = ParseImageColor(filters["color"]); err != nil {
			return nil, err
		}
		if o.Type, err = ParseImageType(filters["image_type"]); err != nil {
			return nil, err
		}
		if o.FileType, err = ParseFileType(filters["file_type"]); err != nil {
			return nil, err
		}
		o.Site = strings.TrimSpace(filters["site"])
		return o, nil
	case models.SearchTypeLocal:
		var o LocalOptions
		if o.Center, err = ParseLatLng(filters["center"]); err != nil {
			return nil, err
		}
		if o.ResultType, err = ParseLocalResultType(filters["result_type"]); err != nil {
			return nil, err
		}
		return o, nil
	case models.SearchTypeVideo:
		var o VideoOptions
		if o.Sort, err = ParseSortOrder(filters["sort"]); err != nil {
			return nil, err
		}
		return o, nil
	case models.SearchTypeNews:
		var o NewsOptions
		if o.Sort, err = ParseSortOrder(filters["sort"]); err != nil {
			return nil, err
		}
		if o.Topic, err = ParseNewsTopic(filters["topic"]); err != nil {
			return nil, err
		}
		o.Location = strings.TrimSpace(filters["location"])
		o.Edition = strings.TrimSpace(filters["edition"])
		return o, nil
	case models.SearchTypePatent:
		var o PatentOptions
		if o.Sort, err = ParseSortOrder(filters["sort"]); err != nil {
			return nil, err
		}
		if o.Status, err = ParsePatentFilter(filters["status"]); err != nil {
			return nil, err
		}
		return o, nil
	case models.SearchTypeBook:
		var o BookOptions
		switch strings.ToLower(strings.TrimSpace(filters["full_view"])) {
		case "", "0", "false", "no", "off":
		case "1", "true", "yes", "on":
			o.FullViewOnly = true
		default:
			return nil, unsupported("full_view", filters["full_view"])
		}
		o.Library = strings.TrimSpace(filters["library"])
		return o, nil
	default:
		return nil, paging.InvalidArgument("type", fmt.Sprintf("unsupported search type %q", searchType))
	}
}

func checkFilterKeys(searchType models.SearchType, filters map[string]string) error {
	allowed := FilterKeys[searchType]
	var unknown []string
	for key := range filters {
		if !slices.Contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return paging.InvalidArgument("filters", fmt.Sprintf("%s search does not accept %s", searchType, strings.Join(unknown, ", ")))
}

// search is the body shared by every adapter.
func search[T any](ctx context.Context, c *Client, searchType models.SearchType, query string, count int, params url.Values, decode decodeFunc[T]) ([]T, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, paging.InvalidArgument("query", "must not be empty")
	}
	params.Set("q", query)
	return paging.FetchN(ctx, count, c.MaxPerCall(searchType), pageFetcher(c, searchType, params, decode))
}

func toItems[T models.Item](results []T, err error) ([]models.Item, error) {
	if err != nil {
		return nil, err
	}
	items := make([]models.Item, len(results))
	for i, r := range results {
		items[i] = r
	}
	return items, nil
}

func setParam(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
