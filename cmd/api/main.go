package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gsearch/common"
	"gsearch/internal/config"
	"gsearch/internal/gsearch"
	"gsearch/internal/kafka"
	"gsearch/internal/models"
	"gsearch/internal/paging"
	"gsearch/internal/store"
)

var (
	// Counters exposed on /metrics.
	apiSearchesSubmitted uint64
	apiSearchesRejected  uint64
	apiQueriesServed     uint64
	apiQueriesFailed     uint64
)

type server struct {
	prod         kafka.JobProducer
	store        store.StatusStore
	searcher     gsearch.Searcher
	logger       *zap.Logger
	defaultCount int
}

func newServer(prod kafka.JobProducer, store store.StatusStore, searcher gsearch.Searcher, logger *zap.Logger, defaultCount int) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCount <= 0 {
		defaultCount = 8
	}
	return &server{
		prod:         prod,
		store:        store,
		searcher:     searcher,
		logger:       logger,
		defaultCount: defaultCount,
	}
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger, err := common.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	prod := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.JobsTopic)
	defer func() {
		if err := prod.Close(); err != nil {
			logger.Warn("failed to close producer", zap.Error(err))
		}
	}()

	statusStore := store.NewRedisStatusStore(cfg.Redis.Addr, store.StatusPrefix, cfg.Redis.StatusTTL)
	defer func() {
		if err := statusStore.Close(); err != nil {
			logger.Warn("failed to close status store", zap.Error(err))
		}
	}()

	httpClient, proxy, err := cfg.Search.HTTPClient(os.Getenv("HOSTNAME"))
	if err != nil {
		logger.Fatal("invalid proxy configuration", zap.Error(err))
	}
	if proxy != "" {
		logger.Info("search requests use proxy", zap.String("proxy", proxy))
	}
	client := gsearch.NewClient(cfg.Search.ClientOptions(httpClient, logger)...)

	srv := newServer(prod, statusStore, client, logger, cfg.Search.DefaultCount)

	logger.Info("api listening", zap.String("addr", cfg.API.Addr))
	if err := http.ListenAndServe(cfg.API.Addr, srv.routes()); err != nil {
		logger.Fatal("api server error", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/search/", s.handleSearchStatus)
	mux.HandleFunc("/query/", s.handleQuery)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// handleSearch accepts POST requests to enqueue a search job.
//
// Method: POST
// Path:   /search
// Example:
//
//	curl -X POST http://localhost:8080/search -d '{"type":"image","query":"golden gate","count":40,"filters":{"size":"large"}}'
func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		atomic.AddUint64(&apiSearchesRejected, 1)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if searchType, ok := models.ParseSearchType(string(req.Type)); ok {
		req.Type = searchType
	}
	if err := gsearch.ValidateRequest(req); err != nil {
		atomic.AddUint64(&apiSearchesRejected, 1)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	createdAt := time.Now().UTC()
	id := uuid.NewString()
	status := models.SearchStatus{
		JobID:     id,
		Request:   req,
		Status:    models.StatusQueued,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	job := models.SearchJob{
		JobID:     id,
		Request:   req,
		CreatedAt: createdAt,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.store.SetStatus(ctx, status); err != nil {
		s.logger.Error("failed to persist status", zap.String("job_id", id), zap.Error(err))
		http.Error(w, "failed to persist status", http.StatusBadGateway)
		return
	}
	if err := s.prod.WriteJob(ctx, job); err != nil {
		s.logger.Error("failed to enqueue job", zap.String("job_id", id), zap.Error(err))
		http.Error(w, "failed to enqueue job", http.StatusBadGateway)
		return
	}

	atomic.AddUint64(&apiSearchesSubmitted, 1)
	s.logger.Info("search job queued",
		zap.String("job_id", id),
		zap.String("type", string(req.Type)),
		zap.Int("count", req.Count),
	)
	writeJSON(w, status, http.StatusAccepted)
}

// handleSearchStatus returns status for a previously submitted search job.
//
// Method: GET
// Path:   /search/{jobID}
// Example:
//
//	curl "http://localhost:8080/search/0b8e2c52-4a8e-4cf4-9d2a-1c0f3f0e1a77"
func (s *server) handleSearchStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/search/"), "/")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}

	status, ok, err := s.store.GetStatus(r.Context(), jobID)
	if err != nil {
		http.Error(w, "failed to load status", http.StatusBadGateway)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, status, http.StatusOK)
}

type queryResponse struct {
	Type    models.SearchType     `json:"type"`
	Query   string                `json:"query"`
	Count   int                   `json:"count"`
	Results []models.ResultRecord `json:"results"`
}

// handleQuery runs a search synchronously and returns the ranked results.
// Every query parameter other than q and n is a filter.
//
// Method: GET
// Path:   /query/{type}?q=...&n=...
// Example:
//
//	curl "http://localhost:8080/query/local?q=pizza&n=10&center=37.42,-122.08"
func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	typeText := strings.Trim(strings.TrimPrefix(r.URL.Path, "/query/"), "/")
	searchType, ok := models.ParseSearchType(typeText)
	if !ok {
		http.Error(w, fmt.Sprintf("unsupported search type %q", typeText), http.StatusBadRequest)
		return
	}
	req, err := s.queryRequest(searchType, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		atomic.AddUint64(&apiQueriesFailed, 1)
		s.logger.Warn("query failed", zap.String("type", string(searchType)), zap.Error(err))
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	resp := queryResponse{
		Type:    searchType,
		Query:   req.Query,
		Count:   len(items),
		Results: make([]models.ResultRecord, 0, len(items)),
	}
	for i, item := range items {
		record, err := models.NewResultRecord(i+1, item)
		if err != nil {
			http.Error(w, "failed to encode result", http.StatusInternalServerError)
			return
		}
		resp.Results = append(resp.Results, record)
	}
	atomic.AddUint64(&apiQueriesServed, 1)
	writeJSON(w, resp, http.StatusOK)
}

func (s *server) queryRequest(searchType models.SearchType, r *http.Request) (models.SearchRequest, error) {
	values := r.URL.Query()
	req := models.SearchRequest{
		Type:  searchType,
		Query: strings.TrimSpace(values.Get("q")),
		Count: s.defaultCount,
	}
	if n := values.Get("n"); n != "" {
		count, err := strconv.Atoi(n)
		if err != nil {
			return models.SearchRequest{}, paging.InvalidArgument("n", "must be an integer")
		}
		req.Count = count
	}
	for key := range values {
		if key == "q" || key == "n" {
			continue
		}
		if req.Filters == nil {
			req.Filters = make(map[string]string)
		}
		req.Filters[key] = values.Get(key)
	}
	return req, nil
}

// statusForError maps search errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, paging.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, paging.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleMetrics exposes a minimal Prometheus-compatible endpoint.
//
// Method: GET
// Path:   /metrics
// Example:
//
//	curl "http://localhost:8080/metrics"
func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	body := fmt.Sprintf(
		"gsearch_api_up 1\n"+
			"gsearch_api_searches_submitted_total %d\n"+
			"gsearch_api_searches_rejected_total %d\n"+
			"gsearch_api_queries_served_total %d\n"+
			"gsearch_api_queries_failed_total %d\n",
		atomic.LoadUint64(&apiSearchesSubmitted),
		atomic.LoadUint64(&apiSearchesRejected),
		atomic.LoadUint64(&apiQueriesServed),
		atomic.LoadUint64(&apiQueriesFailed),
	)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
