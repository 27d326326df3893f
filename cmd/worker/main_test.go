package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"gsearch/internal/models"
	"gsearch/internal/paging"
	"gsearch/mocks"
)

type workerMocks struct {
	reader   *mocks.MockMessageReader
	claims   *mocks.MockDedupeStore
	statuses *mocks.MockStatusStore
	searcher *mocks.MockSearcher
	results  *mocks.MockMessageWriter
	dlq      *mocks.MockMessageWriter
}

func newWorkerMocks(t *testing.T) workerMocks {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return workerMocks{
		reader:   mocks.NewMockMessageReader(ctrl),
		claims:   mocks.NewMockDedupeStore(ctrl),
		statuses: mocks.NewMockStatusStore(ctrl),
		searcher: mocks.NewMockSearcher(ctrl),
		results:  mocks.NewMockMessageWriter(ctrl),
		dlq:      mocks.NewMockMessageWriter(ctrl),
	}
}

// newTestWorker creates a single-slot worker with its commit channel and wait group.
func newTestWorker(m workerMocks, publishTimeout time.Duration) (*worker, chan kafka.Message, *sync.WaitGroup) {
	commitCh := make(chan kafka.Message, 10)
	var wg sync.WaitGroup
	w := newWorker(m.reader, m.claims, m.statuses, m.searcher, m.results, m.dlq, nil, workerSettings{
		ConcurrentJobs: 1,
		ClaimTTL:       time.Hour,
		JobTimeout:     5 * time.Minute,
		PublishTimeout: publishTimeout,
	}, commitCh, &wg)
	return w, commitCh, &wg
}

// statusRecorder collects status writes made from job goroutines.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []models.SearchStatus
}

func (r *statusRecorder) record(_ context.Context, status models.SearchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *statusRecorder) states() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := make([]string, len(r.statuses))
	for i, s := range r.statuses {
		states[i] = s.Status
	}
	return states
}

func (r *statusRecorder) last() models.SearchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

func jobMessage(t *testing.T, job models.SearchJob, offset int64) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("failed to marshal job: %v", err)
	}
	return kafka.Message{Partition: 0, Offset: offset, Value: payload}
}

func testJob(id string) models.SearchJob {
	return models.SearchJob{
		JobID: id,
		Request: models.SearchRequest{
			Type:    models.SearchTypeWeb,
			Query:   "golang",
			Count:   2,
			Filters: map[string]string{"safe": "active"},
		},
	}
}

func TestNewWorkerCapsPublishTimeout(t *testing.T) {
	w := newWorker(nil, nil, nil, nil, nil, nil, nil, workerSettings{
		JobTimeout:     2 * time.Minute,
		PublishTimeout: 5 * time.Minute,
	}, nil, nil)
	if w.publishTimeout != time.Minute {
		t.Fatalf("expected publish timeout 1m, got %s", w.publishTimeout)
	}
	if cap(w.sem) != 1 {
		t.Fatalf("expected one slot, got %d", cap(w.sem))
	}

	w = newWorker(nil, nil, nil, nil, nil, nil, nil, workerSettings{
		JobTimeout:     time.Minute,
		PublishTimeout: time.Minute,
	}, nil, nil)
	if w.publishTimeout != 30*time.Second {
		t.Fatalf("expected publish timeout floor of 30s, got %s", w.publishTimeout)
	}
}

func TestWorkerDispatchInvalidPayload(t *testing.T) {
	m := newWorkerMocks(t)
	m.claims.EXPECT().Claim(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	m.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Times(0)

	w, commitCh, _ := newTestWorker(m, 90*time.Second)
	for _, value := range []string{"{invalid", `{"request":{"type":"web"}}`} {
		if err := w.dispatchMessage(context.Background(), kafka.Message{Value: []byte(value)}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		select {
		case <-commitCh:
		default:
			t.Fatalf("expected %q to be committed without running", value)
		}
	}
}

func TestWorkerDispatchDuplicateSkipped(t *testing.T) {
	m := newWorkerMocks(t)
	job := testJob("job-dup")
	m.claims.EXPECT().Claim(gomock.Any(), "job-dup", time.Hour).Return(false, nil)
	m.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Times(0)
	m.results.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Times(0)

	before := atomic.LoadUint64(&workerJobsSkipped)
	w, commitCh, _ := newTestWorker(m, 90*time.Second)
	if err := w.dispatchMessage(context.Background(), jobMessage(t, job, 3)); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	msg := <-commitCh
	if msg.Offset != 3 {
		t.Fatalf("expected offset 3 committed, got %d", msg.Offset)
	}
	if got := atomic.LoadUint64(&workerJobsSkipped); got != before+1 {
		t.Fatalf("expected skipped counter to advance, got %d", got)
	}
}

func TestWorkerDispatchClaimError(t *testing.T) {
	m := newWorkerMocks(t)
	m.claims.EXPECT().Claim(gomock.Any(), "job-err", time.Hour).Return(false, errors.New("redis down"))
	m.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Times(0)

	w, commitCh, _ := newTestWorker(m, 90*time.Second)
	if err := w.dispatchMessage(context.Background(), jobMessage(t, testJob("job-err"), 0)); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(commitCh) != 0 {
		t.Fatal("expected no commit on claim error")
	}
}

func TestWorkerPublishesResults(t *testing.T) {
	m := newWorkerMocks(t)
	job := testJob("job-ok")
	recorder := &statusRecorder{}

	m.claims.EXPECT().Claim(gomock.Any(), "job-ok", time.Hour).Return(true, nil)
	m.statuses.EXPECT().SetStatus(gomock.Any(), gomock.Any()).DoAndReturn(recorder.record).Times(2)
	m.searcher.EXPECT().Search(gomock.Any(), job.Request).Return([]models.Item{
		models.WebResult{Title: "<b>Go</b>", TitleNoFormatting: "Go", URL: "https://go.dev/"},
		models.WebResult{Title: "Tour", TitleNoFormatting: "Tour", URL: "https://go.dev/tour/"},
	}, nil)
	m.dlq.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Times(0)

	var published models.SearchResult
	var key string
	m.results.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msgs ...kafka.Message) error {
			if len(msgs) != 1 {
				return fmt.Errorf("expected one message, got %d", len(msgs))
			}
			key = string(msgs[0].Key)
			return json.Unmarshal(msgs[0].Value, &published)
		},
	)

	w, commitCh, wg := newTestWorker(m, 90*time.Second)
	if err := w.dispatchMessage(context.Background(), jobMessage(t, job, 7)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	wg.Wait()

	if msg := <-commitCh; msg.Offset != 7 {
		t.Fatalf("expected offset 7 committed, got %d", msg.Offset)
	}
	if key != "job-ok" {
		t.Fatalf("unexpected message key %q", key)
	}
	if published.JobID != "job-ok" || len(published.Items) != 2 {
		t.Fatalf("unexpected result payload: %+v", published)
	}
	if published.Items[0].Rank != 1 || published.Items[1].URL != "https://go.dev/tour/" {
		t.Fatalf("unexpected result items: %+v", published.Items)
	}
	if got := strings.Join(recorder.states(), ","); got != "running,done" {
		t.Fatalf("unexpected status sequence %s", got)
	}
	if last := recorder.last(); last.ResultCount != 2 || last.Error != "" {
		t.Fatalf("unexpected final status: %+v", last)
	}
}

func TestWorkerFetchFailureGoesToDLQ(t *testing.T) {
	m := newWorkerMocks(t)
	job := testJob("job-fail")
	recorder := &statusRecorder{}
	fetchErr := &paging.FetchError{Service: "web", Offset: 8, PageSize: 8, Status: 503, Err: errors.New("unexpected status 503")}

	m.claims.EXPECT().Claim(gomock.Any(), "job-fail", time.Hour).Return(true, nil)
	m.statuses.EXPECT().SetStatus(gomock.Any(), gomock.Any()).DoAndReturn(recorder.record).Times(2)
	m.searcher.EXPECT().Search(gomock.Any(), job.Request).Return(nil, fetchErr)
	m.results.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Times(0)

	var failure models.SearchFailure
	m.dlq.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msgs ...kafka.Message) error {
			return json.Unmarshal(msgs[0].Value, &failure)
		},
	)

	w, commitCh, wg := newTestWorker(m, 90*time.Second)
	if err := w.dispatchMessage(context.Background(), jobMessage(t, job, 0)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	wg.Wait()
	<-commitCh

	if failure.JobID != "job-fail" {
		t.Fatalf("unexpected failure job id %q", failure.JobID)
	}
	if failure.Offset == nil || *failure.Offset != 8 || failure.PageSize == nil || *failure.PageSize != 8 {
		t.Fatalf("expected failing page offset=8 size=8, got %+v", failure)
	}
	if !strings.Contains(failure.Error, "status=503") {
		t.Fatalf("unexpected failure error %q", failure.Error)
	}
	last := recorder.last()
	if last.Status != models.StatusFailed || last.Error == "" {
		t.Fatalf("unexpected final status: %+v", last)
	}
}

func TestNewSearchFailureWithoutPage(t *testing.T) {
	failure := newSearchFailure(testJob("job-x"), errors.New("boom"))
	if failure.Offset != nil || failure.PageSize != nil {
		t.Fatalf("expected no page for a non-fetch error, got %+v", failure)
	}
	if failure.Error != "boom" {
		t.Fatalf("unexpected error %q", failure.Error)
	}
}

// A publish that never returns must not hold the message back from the
// commit coordinator.
func TestPublishTimeoutAdvancesCommit(t *testing.T) {
	m := newWorkerMocks(t)
	job := testJob("job-stuck")

	m.claims.EXPECT().Claim(gomock.Any(), "job-stuck", time.Hour).Return(true, nil)
	m.statuses.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]models.Item{
		models.WebResult{Title: "Go", TitleNoFormatting: "Go", URL: "https://go.dev/"},
	}, nil)
	m.results.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ ...kafka.Message) error {
			<-ctx.Done()
			return ctx.Err()
		},
	)

	w, commitCh, wg := newTestWorker(m, 50*time.Millisecond)
	if err := w.dispatchMessage(context.Background(), jobMessage(t, job, 42)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	select {
	case msg := <-commitCh:
		if msg.Offset != 42 {
			t.Fatalf("expected offset 42, got %d", msg.Offset)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("publish timeout did not release the message for commit")
	}
	wg.Wait()
}

// Cancelling mid-job follows main's shutdown order: jobs finish after the
// coordinator's context has ended, every message still reaches it, and
// closing commitCh afterwards does not race a pending send.
func TestWorkerShutdownHandsEveryMessageToCoordinator(t *testing.T) {
	m := newWorkerMocks(t)
	m.claims.EXPECT().Claim(gomock.Any(), gomock.Any(), time.Hour).Return(true, nil).Times(3)
	m.statuses.EXPECT().SetStatus(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.SearchRequest) ([]models.Item, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	).Times(3)
	m.dlq.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	var mu sync.Mutex
	var committed []int64
	m.reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msgs ...kafka.Message) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, msg := range msgs {
				committed = append(committed, msg.Offset)
			}
			return nil
		},
	).AnyTimes()

	commitCh := make(chan kafka.Message)
	var wg sync.WaitGroup
	w := newWorker(m.reader, m.claims, m.statuses, m.searcher, m.results, m.dlq, nil, workerSettings{
		ConcurrentJobs: 3,
		ClaimTTL:       time.Hour,
		JobTimeout:     5 * time.Minute,
		PublishTimeout: 90 * time.Second,
	}, commitCh, &wg)

	ctx, cancel := context.WithCancel(context.Background())
	coordinator := newCommitCoordinator(m.reader, commitCh, nil)
	var coordWg sync.WaitGroup
	coordWg.Add(1)
	go coordinator.run(ctx, &coordWg)

	// Offset 0 opens the partition cursor before any job finishes.
	if err := w.dispatchMessage(ctx, kafka.Message{Partition: 0, Offset: 0, Value: []byte("{")}); err != nil {
		t.Fatalf("dispatch invalid payload: %v", err)
	}
	for offset := int64(1); offset <= 3; offset++ {
		job := testJob(fmt.Sprintf("job-%d", offset))
		if err := w.dispatchMessage(ctx, jobMessage(t, job, offset)); err != nil {
			t.Fatalf("dispatch %d: %v", offset, err)
		}
	}

	cancel()
	wg.Wait()
	close(commitCh)
	coordWg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(committed) != "[0 1 2 3]" {
		t.Fatalf("expected every offset committed in order, got %v", committed)
	}
}

func TestCommitCoordinatorCommitsInOffsetOrder(t *testing.T) {
	m := newWorkerMocks(t)
	var mu sync.Mutex
	var committed []int64
	m.reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msgs ...kafka.Message) error {
			mu.Lock()
			defer mu.Unlock()
			for _, msg := range msgs {
				committed = append(committed, msg.Offset)
			}
			return nil
		},
	).Times(3)

	commitCh := make(chan kafka.Message, 3)
	coordinator := newCommitCoordinator(m.reader, commitCh, nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go coordinator.run(context.Background(), &wg)

	// Offset 10 opens the partition; 12 finishes before 11.
	commitCh <- kafka.Message{Partition: 0, Offset: 10}
	commitCh <- kafka.Message{Partition: 0, Offset: 12}
	commitCh <- kafka.Message{Partition: 0, Offset: 11}
	close(commitCh)
	wg.Wait()

	if fmt.Sprint(committed) != "[10 11 12]" {
		t.Fatalf("expected in-order commits, got %v", committed)
	}
}

func TestCommitCoordinatorRequeuesOnCommitFailure(t *testing.T) {
	m := newWorkerMocks(t)
	commitCh := make(chan kafka.Message, 2)
	coordinator := newCommitCoordinator(m.reader, commitCh, nil)

	atomic.StoreUint64(&workerCommitErrorsTotal, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go coordinator.run(ctx, &wg)

	gomock.InOrder(
		m.reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(errors.New("commit failed")),
		m.reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil),
		m.reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil),
	)

	commitCh <- kafka.Message{Partition: 0, Offset: 0}
	time.Sleep(50 * time.Millisecond)
	commitCh <- kafka.Message{Partition: 0, Offset: 1}
	time.Sleep(100 * time.Millisecond)
	close(commitCh)
	wg.Wait()

	if got := atomic.LoadUint64(&workerCommitErrorsTotal); got != 1 {
		t.Fatalf("expected 1 commit error, got %d", got)
	}
}

func TestObserveFetchCountsOutcomes(t *testing.T) {
	pagesBefore := atomic.LoadUint64(workerPagesFetched[models.SearchTypeImage])
	errorsBefore := atomic.LoadUint64(&workerPageErrorsTotal)
	rateBefore := atomic.LoadUint64(&workerRateLimitHitsTotal)
	breakerBefore := atomic.LoadUint64(&workerBreakerRejectsTotal)

	observeFetch(models.SearchTypeImage, 30*time.Millisecond, nil)
	observeFetch(models.SearchTypeImage, 30*time.Millisecond, &paging.FetchError{Service: "image", Status: http.StatusTooManyRequests, Err: errors.New("unexpected status 429")})
	observeFetch(models.SearchTypeImage, time.Millisecond, &paging.FetchError{Service: "image", Err: gobreaker.ErrOpenState})

	if got := atomic.LoadUint64(workerPagesFetched[models.SearchTypeImage]); got != pagesBefore+1 {
		t.Fatalf("expected one page fetched, got %d", got-pagesBefore)
	}
	if got := atomic.LoadUint64(&workerPageErrorsTotal); got != errorsBefore+2 {
		t.Fatalf("expected two page errors, got %d", got-errorsBefore)
	}
	if got := atomic.LoadUint64(&workerRateLimitHitsTotal); got != rateBefore+1 {
		t.Fatalf("expected one rate limit hit, got %d", got-rateBefore)
	}
	if got := atomic.LoadUint64(&workerBreakerRejectsTotal); got != breakerBefore+1 {
		t.Fatalf("expected one breaker reject, got %d", got-breakerBefore)
	}
}

func TestHandleMetricsMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/metrics", nil)
	rec := httptest.NewRecorder()

	handleMetrics(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestHandleMetricsOK(t *testing.T) {
	atomic.StoreUint64(&workerJobsReceived, 4)
	atomic.StoreUint64(&workerJobsSkipped, 1)
	atomic.StoreUint64(&workerJobsSuccess, 2)
	atomic.StoreUint64(&workerJobsFailed, 1)
	observeLatency(fetchLatency, 120*time.Millisecond)
	metricsProxyURL = `http://proxy"a:8080`
	t.Cleanup(func() { metricsProxyURL = "" })

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	handleMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	for _, line := range []string{
		"gsearch_worker_up 1",
		"gsearch_worker_jobs_received_total 4",
		"gsearch_worker_jobs_skipped_total 1",
		"gsearch_worker_jobs_success_total 2",
		"gsearch_worker_jobs_failed_total 1",
		`gsearch_worker_proxy_info{proxy="http://proxy\"a:8080"} 1`,
		`gsearch_worker_pages_fetched_total{type="web"}`,
		`gsearch_worker_pages_fetched_total{type="book"}`,
		"# TYPE gsearch_worker_fetch_latency_seconds histogram",
		`gsearch_worker_fetch_latency_seconds_bucket{le="0.25"}`,
		`gsearch_worker_fetch_latency_seconds_bucket{le="+Inf"}`,
		"gsearch_worker_fetch_latency_seconds_sum",
		"gsearch_worker_fetch_latency_seconds_count",
		"gsearch_worker_commit_errors_total",
		"gsearch_worker_commit_pending_total",
		"gsearch_worker_in_flight",
		"# TYPE gsearch_worker_commit_latency_seconds histogram",
		"gsearch_worker_commit_latency_seconds_bucket",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected metrics to contain %q", line)
		}
	}
}

func TestLatencyHistogramBuckets(t *testing.T) {
	h := newLatencyHistogram("test_latency_seconds", "Test.", "%.1f", 0.1, 1)
	observeLatency(h, 50*time.Millisecond)
	observeLatency(h, 500*time.Millisecond)
	observeLatency(h, 3*time.Second)
	observeLatency(h, 0)

	var sb strings.Builder
	h.appendTo(&sb)
	body := sb.String()
	for _, line := range []string{
		`test_latency_seconds_bucket{le="0.1"} 1`,
		`test_latency_seconds_bucket{le="1.0"} 2`,
		`test_latency_seconds_bucket{le="+Inf"} 3`,
		"test_latency_seconds_sum 3.550000",
		"test_latency_seconds_count 3",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected histogram to contain %q, got:\n%s", line, body)
		}
	}
}
