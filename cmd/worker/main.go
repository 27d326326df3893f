package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gsearch/common"
	"gsearch/internal/config"
	"gsearch/internal/gsearch"
	"gsearch/internal/models"
	"gsearch/internal/paging"
	"gsearch/internal/queue"
	"gsearch/internal/store"
)

type worker struct {
	reader         queue.MessageReader
	claims         store.DedupeStore
	statuses       store.StatusStore
	searcher       gsearch.Searcher
	resultsWriter  queue.MessageWriter
	dlqWriter      queue.MessageWriter
	logger         *zap.Logger
	claimTTL       time.Duration
	jobTimeout     time.Duration // per-job deadline so one stuck search can't hold a slot
	publishTimeout time.Duration // bound on the publish phase so the commit path never blocks
	commitCh       chan<- kafka.Message
	sem            chan struct{}
	wg             *sync.WaitGroup
}

// workerSettings carries the tunables of a worker.
type workerSettings struct {
	ConcurrentJobs int
	ClaimTTL       time.Duration
	JobTimeout     time.Duration
	PublishTimeout time.Duration
}

func newWorker(
	reader queue.MessageReader,
	claims store.DedupeStore,
	statuses store.StatusStore,
	searcher gsearch.Searcher,
	resultsWriter queue.MessageWriter,
	dlqWriter queue.MessageWriter,
	logger *zap.Logger,
	settings workerSettings,
	commitCh chan<- kafka.Message,
	wg *sync.WaitGroup,
) *worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.ConcurrentJobs < 1 {
		settings.ConcurrentJobs = 1
	}
	if settings.JobTimeout <= 0 {
		settings.JobTimeout = 5 * time.Minute
	}
	if settings.PublishTimeout <= 0 {
		settings.PublishTimeout = 90 * time.Second
	}
	// The job context must still be able to cancel the publish phase.
	if settings.PublishTimeout >= settings.JobTimeout {
		settings.PublishTimeout = settings.JobTimeout - time.Minute
		if settings.PublishTimeout < 30*time.Second {
			settings.PublishTimeout = 30 * time.Second
		}
	}
	return &worker{
		reader:         reader,
		claims:         claims,
		statuses:       statuses,
		searcher:       searcher,
		resultsWriter:  resultsWriter,
		dlqWriter:      dlqWriter,
		logger:         logger,
		claimTTL:       settings.ClaimTTL,
		jobTimeout:     settings.JobTimeout,
		publishTimeout: settings.PublishTimeout,
		commitCh:       commitCh,
		sem:            make(chan struct{}, settings.ConcurrentJobs),
		wg:             wg,
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

	reader := queue.NewReader(cfg.Kafka.Broker, cfg.Kafka.JobsTopic, cfg.Kafka.WorkerGroup)
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("failed to close reader", zap.Error(err))
		}
	}()

	redisStore := store.NewRedisStatusStore(cfg.Redis.Addr, store.StatusPrefix, cfg.Redis.StatusTTL)
	defer func() {
		if err := redisStore.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	resultsWriter := queue.NewWriter(cfg.Kafka.Broker, cfg.Kafka.ResultsTopic)
	defer func() {
		if err := resultsWriter.Close(); err != nil {
			logger.Warn("failed to close results writer", zap.Error(err))
		}
	}()

	dlqWriter := queue.NewWriter(cfg.Kafka.Broker, cfg.Kafka.DLQTopic)
	defer func() {
		if err := dlqWriter.Close(); err != nil {
			logger.Warn("failed to close dlq writer", zap.Error(err))
		}
	}()

	hostname := os.Getenv("HOSTNAME")
	httpClient, proxyURL, err := cfg.Search.HTTPClient(hostname)
	if err != nil {
		logger.Fatal("invalid proxy configuration", zap.Error(err))
	}
	if proxyURL != "" {
		logger.Info("worker proxy selected", zap.String("hostname", hostname), zap.String("proxy", proxyURL))
	}
	metricsProxyURL = proxyURL
	opts := append(cfg.Search.ClientOptions(httpClient, logger), gsearch.WithFetchObserver(observeFetch))
	client := gsearch.NewClient(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Worker.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.Worker.MetricsAddr, logger)
	}

	commitCh := make(chan kafka.Message, cfg.Worker.ConcurrentJobs*2)
	coordinator := newCommitCoordinator(reader, commitCh, logger)
	var coordWg sync.WaitGroup
	coordWg.Add(1)
	go coordinator.run(ctx, &coordWg)

	logger.Info("worker consuming",
		zap.String("topic", cfg.Kafka.JobsTopic),
		zap.String("group", cfg.Kafka.WorkerGroup),
		zap.String("broker", cfg.Kafka.Broker),
		zap.Int("concurrent_jobs", cfg.Worker.ConcurrentJobs),
	)
	var wg sync.WaitGroup
	w := newWorker(
		reader,
		redisStore,
		redisStore,
		client,
		resultsWriter,
		dlqWriter,
		logger,
		workerSettings{
			ConcurrentJobs: cfg.Worker.ConcurrentJobs,
			ClaimTTL:       cfg.Redis.DedupeTTL,
			JobTimeout:     cfg.Worker.JobTimeout,
			PublishTimeout: cfg.Worker.PublishTimeout,
		},
		commitCh,
		&wg,
	)
	w.run(ctx)
	wg.Wait()
	close(commitCh)
	coordWg.Wait()
}

// run consumes the jobs topic until ctx ends. Jobs run on goroutines bounded
// by the semaphore; commits go through the coordinator.
func (w *worker) run(ctx context.Context) {
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("fetch error", zap.Error(err))
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := w.dispatchMessage(ctx, msg); err != nil {
			w.logger.Error("message dispatch error", zap.Error(err))
		}
	}
}

// dispatchMessage decodes and claims the job synchronously, then runs it on
// its own goroutine. Undecodable and already-claimed messages are committed
// without running.
func (w *worker) dispatchMessage(ctx context.Context, msg kafka.Message) error {
	var job models.SearchJob
	if err := json.Unmarshal(msg.Value, &job); err != nil || job.JobID == "" {
		w.logger.Warn("invalid job payload",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		w.commitCh <- msg
		return nil
	}

	atomic.AddUint64(&workerJobsReceived, 1)
	claimed, err := w.claims.Claim(ctx, job.JobID, w.claimTTL)
	if err != nil {
		return fmt.Errorf("claim job %s: %w", job.JobID, err)
	}
	if !claimed {
		atomic.AddUint64(&workerJobsSkipped, 1)
		w.logger.Info("duplicate job skipped", zap.String("job_id", job.JobID))
		w.commitCh <- msg
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case w.sem <- struct{}{}:
	}
	atomic.AddInt64(&workerInFlight, 1)
	w.wg.Add(1)
	go w.processJobAsync(ctx, msg, job)
	return nil
}

// processJobAsync runs the search and publishes its outcome. The message is
// handed to the coordinator on return, including on timeout, and before the
// job is marked done so commitCh is never closed under a pending send.
func (w *worker) processJobAsync(ctx context.Context, msg kafka.Message, job models.SearchJob) {
	defer func() {
		atomic.AddInt64(&workerInFlight, -1)
		<-w.sem
		w.commitCh <- msg
		w.wg.Done()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	log := w.logger.With(
		zap.String("job_id", job.JobID),
		zap.String("type", string(job.Request.Type)),
		zap.Int("count", job.Request.Count),
	)
	log.Info("received job", zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
	w.setStatus(jobCtx, job, models.StatusRunning, 0, nil)

	start := time.Now()
	items, err := w.searcher.Search(jobCtx, job.Request)

	publishCtx, publishCancel := context.WithTimeout(jobCtx, w.publishTimeout)
	defer publishCancel()

	if err != nil {
		atomic.AddUint64(&workerJobsFailed, 1)
		log.Warn("search failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		if dlqErr := w.publishDLQ(publishCtx, job, err); dlqErr != nil {
			log.Error("dlq publish error", zap.Error(dlqErr))
		}
		w.setStatus(publishCtx, job, models.StatusFailed, 0, err)
		return
	}

	if err := w.publishResult(publishCtx, job, items); err != nil {
		atomic.AddUint64(&workerJobsFailed, 1)
		log.Error("publish result error", zap.Error(err))
		w.setStatus(publishCtx, job, models.StatusFailed, 0, err)
		return
	}
	atomic.AddUint64(&workerJobsSuccess, 1)
	atomic.AddUint64(&workerResultsTotal, uint64(len(items)))
	w.setStatus(publishCtx, job, models.StatusDone, len(items), nil)
	log.Info("job done", zap.Int("results", len(items)), zap.Duration("elapsed", time.Since(start)))
}

// setStatus records the job state. Status writes are best effort.
func (w *worker) setStatus(ctx context.Context, job models.SearchJob, state string, resultCount int, jobErr error) {
	if w.statuses == nil {
		return
	}
	status := models.SearchStatus{
		JobID:       job.JobID,
		Request:     job.Request,
		Status:      state,
		ResultCount: resultCount,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	if jobErr != nil {
		status.Error = jobErr.Error()
	}
	if err := w.statuses.SetStatus(ctx, status); err != nil {
		w.logger.Warn("status update failed",
			zap.String("job_id", job.JobID),
			zap.String("status", state),
			zap.Error(err),
		)
	}
}

func (w *worker) publishResult(ctx context.Context, job models.SearchJob, items []models.Item) error {
	if w.resultsWriter == nil {
		return nil
	}
	payload, err := models.NewSearchResult(job, items)
	if err != nil {
		return err
	}
	return w.resultsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.JobID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (w *worker) publishDLQ(ctx context.Context, job models.SearchJob, jobErr error) error {
	if w.dlqWriter == nil {
		return nil
	}
	payload, err := json.Marshal(newSearchFailure(job, jobErr))
	if err != nil {
		return err
	}
	return w.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.JobID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

// newSearchFailure records the failing page when jobErr came from a page fetch.
func newSearchFailure(job models.SearchJob, jobErr error) models.SearchFailure {
	failure := models.SearchFailure{
		JobID:    job.JobID,
		Request:  job.Request,
		Error:    jobErr.Error(),
		FailedAt: time.Now().UTC(),
	}
	var fetchErr *paging.FetchError
	if errors.As(jobErr, &fetchErr) {
		offset, pageSize := fetchErr.Offset, fetchErr.PageSize
		failure.Offset = &offset
		failure.PageSize = &pageSize
	}
	return failure
}
