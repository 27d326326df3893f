package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"gsearch/common"
	"gsearch/internal/gsearch"
	"gsearch/internal/models"
)

// Config holds the searches to submit to the API.
type Config struct {
	Searches []models.SearchRequest `json:"searches"`
	// Repeat submits the whole list this many times; zero means once.
	Repeat int `json:"repeat,omitempty"`
}

var errNoSearches = errors.New("config has no searches")

func main() {
	configPath := flag.String("config", "searches.json", "Path to JSON config file with searches")
	apiBase := flag.String("api", "http://localhost:30080", "API base URL (nodePort when hitting Kind from host; e.g. http://localhost:30080)")
	concurrency := flag.Int("concurrency", 8, "Maximum in-flight submissions")
	flag.Parse()

	logger, err := common.NewLogger(common.GetEnv("LOG_LEVEL", "info"), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if _, err := run(*configPath, *apiBase, *concurrency, nil, logger); err != nil {
		logger.Fatal("loadgen failed", zap.Error(err))
	}
}

// run loads config from configPath and submits every search to the API with
// at most concurrency requests in flight. It returns the number accepted.
// If client is nil, a default HTTP client (30s timeout) is used.
func run(configPath, apiBase string, concurrency int, client *http.Client, logger *zap.Logger) (int, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return 0, err
	}

	baseURL, err := url.Parse(apiBase)
	if err != nil {
		return 0, err
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	repeat := cfg.Repeat
	if repeat < 1 {
		repeat = 1
	}

	var (
		wg       sync.WaitGroup
		accepted int64
		sem      = make(chan struct{}, concurrency)
	)
	for round := 0; round < repeat; round++ {
		for i, req := range cfg.Searches {
			sem <- struct{}{}
			wg.Add(1)
			go func(idx int, req models.SearchRequest) {
				defer func() {
					<-sem
					wg.Done()
				}()
				if submitSearch(client, baseURL, idx, req, logger) {
					atomic.AddInt64(&accepted, 1)
				}
			}(i, req)
		}
	}
	wg.Wait()
	total := repeat * len(cfg.Searches)
	logger.Info("submitted searches", zap.Int("total", total), zap.Int64("accepted", accepted))
	return int(accepted), nil
}

// loadConfig reads and parses the JSON config file. Every search is checked
// locally so a typo fails before any request is sent.
func loadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Searches) == 0 {
		return cfg, errNoSearches
	}
	for i, req := range cfg.Searches {
		if searchType, ok := models.ParseSearchType(string(req.Type)); ok {
			req.Type = searchType
		}
		if err := gsearch.ValidateRequest(req); err != nil {
			return cfg, fmt.Errorf("search %d: %w", i, err)
		}
		cfg.Searches[i] = req
	}
	return cfg, nil
}

func submitSearch(client *http.Client, base *url.URL, idx int, req models.SearchRequest, logger *zap.Logger) bool {
	u := *base
	u.Path = "/search"
	u.RawQuery = ""

	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(
		zap.Int("idx", idx),
		zap.String("type", string(req.Type)),
		zap.String("query", req.Query),
	)
	body, err := json.Marshal(req)
	if err != nil {
		log.Warn("encode failed", zap.Error(err))
		return false
	}
	resp, err := client.Post(u.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Warn("submit failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		log.Warn("search rejected", zap.Int("status", resp.StatusCode))
		return false
	}
	log.Info("search accepted")
	return true
}
