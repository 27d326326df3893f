package config

import (
	"hash/fnv"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"gsearch/internal/gsearch"
	"gsearch/internal/models"
)

// Timeouts so a single hung page request does not hold a worker slot.
const (
	connectTimeout        = 10 * time.Second
	responseHeaderTimeout = 25 * time.Second
)

// SelectProxyFromPool returns one URL from pool (comma-separated) by hashing
// hostname, so replicas spread deterministically across proxies.
func SelectProxyFromPool(pool, hostname string) string {
	var valid []string
	for _, p := range strings.Split(strings.TrimSpace(pool), ",") {
		if p = strings.TrimSpace(p); p != "" {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return ""
	}
	if hostname == "" {
		hostname = "0"
	}
	h := fnv.New32a()
	h.Write([]byte(hostname))
	return valid[h.Sum32()%uint32(len(valid))]
}

// HTTPClient builds the transport for page requests. It returns the proxy
// in use, empty when requests go direct.
func (s SearchConfig) HTTPClient(hostname string) (*http.Client, string, error) {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		ResponseHeaderTimeout: responseHeaderTimeout,
	}
	proxyURL := s.ProxyURL
	if proxyURL == "" && s.ProxyPool != "" {
		proxyURL = SelectProxyFromPool(s.ProxyPool, hostname)
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, "", err
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport, Timeout: s.Timeout}, proxyURL, nil
}

// ClientOptions translates the search settings into client options.
func (s SearchConfig) ClientOptions(httpClient *http.Client, logger *zap.Logger) []gsearch.Option {
	opts := []gsearch.Option{
		gsearch.WithHTTPClient(httpClient),
		gsearch.WithBaseURL(s.BaseURL),
		gsearch.WithAPIKey(s.APIKey),
		gsearch.WithLanguage(s.Language),
		gsearch.WithReferer(s.Referer),
		gsearch.WithUserAgent(s.UserAgent),
		gsearch.WithLogger(logger),
	}
	for name, n := range s.MaxPerCall {
		if searchType, ok := models.ParseSearchType(name); ok {
			opts = append(opts, gsearch.WithMaxPerCall(searchType, n))
		}
	}
	if s.Breaker.Enabled {
		opts = append(opts, gsearch.WithBreaker(s.Breaker.Settings(logger)))
	}
	return opts
}

// Settings builds breaker settings that trip once MinRequests have been seen
// in the interval and the failure ratio reaches FailureRatio.
func (b BreakerConfig) Settings(logger *zap.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "gsearch",
		MaxRequests: b.MaxRequests,
		Interval:    b.Interval,
		Timeout:     b.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= b.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	}
}
