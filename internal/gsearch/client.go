// Package gsearch is a typed client for the AJAX search service. Each search
// type has its own adapter that binds query and filters into a page fetcher
// and hands it to the paging aggregator.
package gsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"gsearch/internal/models"
)

const (
	// DefaultBaseURL is the root of the AJAX search endpoints.
	DefaultBaseURL = "https://ajax.googleapis.com/ajax/services/search"
	// DefaultUserAgent identifies this client to the service.
	DefaultUserAgent = "gsearch/1.0"
	protocolVersion  = "1.0"
)

// DefaultMaxPerCall is the page ceiling the service enforces per search type.
var DefaultMaxPerCall = map[models.SearchType]int{
	models.SearchTypeWeb:    8,
	models.SearchTypeImage:  32,
	models.SearchTypeLocal:  32,
	models.SearchTypeVideo:  8,
	models.SearchTypeNews:   8,
	models.SearchTypePatent: 8,
	models.SearchTypeBook:   8,
}

var endpoints = map[models.SearchType]string{
	models.SearchTypeWeb:    "web",
	models.SearchTypeImage:  "images",
	models.SearchTypeLocal:  "local",
	models.SearchTypeVideo:  "video",
	models.SearchTypeNews:   "news",
	models.SearchTypePatent: "patent",
	models.SearchTypeBook:   "books",
}

// FetchObserver is told about every page request once it completes. A
// failed page is reported with its *paging.FetchError.
type FetchObserver func(searchType models.SearchType, elapsed time.Duration, err error)

// Client issues page requests against the search service. It holds no
// per-search state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	referer    string
	userAgent  string
	logger     *zap.Logger
	breaker    *gobreaker.CircuitBreaker
	maxPerCall map[models.SearchType]int
	observer   FetchObserver
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client, e.g. one configured with a proxy.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAPIKey passes key through on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithLanguage sets the host language (hl) for result formatting.
func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

func WithReferer(referer string) Option {
	return func(c *Client) { c.referer = referer }
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBreaker wraps every page request in a circuit breaker. An open
// breaker fails the page like any other transport fault.
func WithBreaker(settings gobreaker.Settings) Option {
	return func(c *Client) {
		if settings.Name == "" {
			settings.Name = "gsearch"
		}
		c.breaker = gobreaker.NewCircuitBreaker(settings)
	}
}

// WithMaxPerCall overrides the page ceiling for one search type.
func WithMaxPerCall(searchType models.SearchType, n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPerCall[searchType] = n
		}
	}
}

func WithFetchObserver(observer FetchObserver) Option {
	return func(c *Client) { c.observer = observer }
}

// NewClient builds a Client with production defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		logger:     zap.NewNop(),
		maxPerCall: make(map[models.SearchType]int, len(DefaultMaxPerCall)),
	}
	for searchType, n := range DefaultMaxPerCall {
		c.maxPerCall[searchType] = n
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxPerCall returns the page ceiling used for searchType.
func (c *Client) MaxPerCall(searchType models.SearchType) int {
	return c.maxPerCall[searchType]
}

func (c *Client) endpointURL(searchType models.SearchType) string {
	return c.baseURL + "/" + endpoints[searchType]
}

// getJSON performs a GET and returns the body with the HTTP status.
// Non-2xx responses return an error alongside the status.
func (c *Client) getJSON(ctx context.Context, rawURL string) ([]byte, int, error) {
	if c.breaker == nil {
		return c.doGet(ctx, rawURL)
	}
	var status int
	out, err := c.breaker.Execute(func() (interface{}, error) {
		body, code, err := c.doGet(ctx, rawURL)
		status = code
		return body, err
	})
	if err != nil {
		return nil, status, err
	}
	return out.([]byte), status, nil
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
