package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"gsearch/internal/models"
	"gsearch/internal/paging"
)

var (
	// Job outcomes exposed on /metrics.
	workerJobsReceived uint64
	workerJobsSkipped  uint64
	workerJobsSuccess  uint64
	workerJobsFailed   uint64
	workerResultsTotal uint64

	// Page-level counters fed by the client's fetch observer.
	workerPageErrorsTotal     uint64
	workerRateLimitHitsTotal  uint64
	workerBreakerRejectsTotal uint64
	workerPagesFetched        = newTypeCounters()

	workerCommitErrorsTotal  uint64
	workerCommitPendingTotal int64 // gauge: messages buffered awaiting an in-order commit
	workerInFlight           int64 // gauge: semaphore slots in use

	fetchLatency  = newLatencyHistogram("gsearch_worker_fetch_latency_seconds", "Search page fetch latency.", "%.2f", 0.05, 0.1, 0.25, 0.5, 1, 2, 5)
	commitLatency = newLatencyHistogram("gsearch_worker_commit_latency_seconds", "Kafka commit latency.", "%.3f", 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1)
)

// metricsProxyURL is the proxy this worker sends page requests through.
var metricsProxyURL string

// typeCounters holds one counter per search type. The map is never
// written after init.
type typeCounters map[models.SearchType]*uint64

func newTypeCounters() typeCounters {
	counters := make(typeCounters, len(models.SearchTypes))
	for _, t := range models.SearchTypes {
		counters[t] = new(uint64)
	}
	return counters
}

func (c typeCounters) inc(t models.SearchType) {
	if counter, ok := c[t]; ok {
		atomic.AddUint64(counter, 1)
	}
}

// latencyHistogram is a Prometheus histogram over fixed upper bounds. The
// last count slot is the +Inf bucket.
type latencyHistogram struct {
	name    string
	help    string
	leFmt   string
	buckets []float64
	counts  []uint64
	sumNs   uint64
	count   uint64
}

func newLatencyHistogram(name, help, leFmt string, buckets ...float64) *latencyHistogram {
	return &latencyHistogram{
		name:    name,
		help:    help,
		leFmt:   leFmt,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)+1),
	}
}

func observeLatency(h *latencyHistogram, duration time.Duration) {
	if duration <= 0 {
		return
	}
	seconds := duration.Seconds()
	idx := len(h.buckets)
	for i, bound := range h.buckets {
		if seconds <= bound {
			idx = i
			break
		}
	}
	atomic.AddUint64(&h.counts[idx], 1)
	atomic.AddUint64(&h.sumNs, uint64(duration.Nanoseconds()))
	atomic.AddUint64(&h.count, 1)
}

func (h *latencyHistogram) appendTo(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n", h.name, h.help)
	fmt.Fprintf(sb, "# TYPE %s histogram\n", h.name)
	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += atomic.LoadUint64(&h.counts[i])
		fmt.Fprintf(sb, "%s_bucket{le=\"%s\"} %d\n", h.name, fmt.Sprintf(h.leFmt, bound), cumulative)
	}
	cumulative += atomic.LoadUint64(&h.counts[len(h.buckets)])
	fmt.Fprintf(sb, "%s_bucket{le=\"+Inf\"} %d\n", h.name, cumulative)
	fmt.Fprintf(sb, "%s_sum %.6f\n", h.name, float64(atomic.LoadUint64(&h.sumNs))/float64(time.Second))
	fmt.Fprintf(sb, "%s_count %d\n", h.name, atomic.LoadUint64(&h.count))
}

// observeFetch is installed as the client's fetch observer.
func observeFetch(searchType models.SearchType, elapsed time.Duration, err error) {
	observeLatency(fetchLatency, elapsed)
	if err == nil {
		workerPagesFetched.inc(searchType)
		return
	}
	atomic.AddUint64(&workerPageErrorsTotal, 1)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		atomic.AddUint64(&workerBreakerRejectsTotal, 1)
	}
	if statusOf(err) == http.StatusTooManyRequests {
		atomic.AddUint64(&workerRateLimitHitsTotal, 1)
	}
}

// statusOf returns the HTTP status carried by a fetch error, 0 otherwise.
func statusOf(err error) int {
	var fetchErr *paging.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Status
	}
	return 0
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", handleMetrics)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown error", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"gsearch_worker_up 1\n"+
			"gsearch_worker_jobs_received_total %d\n"+
			"gsearch_worker_jobs_skipped_total %d\n"+
			"gsearch_worker_jobs_success_total %d\n"+
			"gsearch_worker_jobs_failed_total %d\n"+
			"gsearch_worker_results_total %d\n",
		atomic.LoadUint64(&workerJobsReceived),
		atomic.LoadUint64(&workerJobsSkipped),
		atomic.LoadUint64(&workerJobsSuccess),
		atomic.LoadUint64(&workerJobsFailed),
		atomic.LoadUint64(&workerResultsTotal),
	)
	if metricsProxyURL != "" {
		sb.WriteString("# HELP gsearch_worker_proxy_info Proxy URL this worker uses (1 when set).\n")
		sb.WriteString("# TYPE gsearch_worker_proxy_info gauge\n")
		fmt.Fprintf(&sb, "gsearch_worker_proxy_info{proxy=\"%s\"} 1\n", escapeMetricLabel(metricsProxyURL))
	}

	sb.WriteString("# HELP gsearch_worker_pages_fetched_total Pages fetched per search type.\n")
	sb.WriteString("# TYPE gsearch_worker_pages_fetched_total counter\n")
	for _, t := range models.SearchTypes {
		fmt.Fprintf(&sb, "gsearch_worker_pages_fetched_total{type=\"%s\"} %d\n", t, atomic.LoadUint64(workerPagesFetched[t]))
	}
	fmt.Fprintf(&sb,
		"gsearch_worker_page_errors_total %d\n"+
			"gsearch_worker_rate_limit_hits_total %d\n"+
			"gsearch_worker_breaker_rejects_total %d\n"+
			"gsearch_worker_commit_errors_total %d\n"+
			"gsearch_worker_commit_pending_total %d\n"+
			"gsearch_worker_in_flight %d\n",
		atomic.LoadUint64(&workerPageErrorsTotal),
		atomic.LoadUint64(&workerRateLimitHitsTotal),
		atomic.LoadUint64(&workerBreakerRejectsTotal),
		atomic.LoadUint64(&workerCommitErrorsTotal),
		atomic.LoadInt64(&workerCommitPendingTotal),
		atomic.LoadInt64(&workerInFlight),
	)
	fetchLatency.appendTo(&sb)
	commitLatency.appendTo(&sb)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

// escapeMetricLabel escapes backslash and double quote for Prometheus label values.
func escapeMetricLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\"", "\\\"")
}
