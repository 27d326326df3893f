package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gsearch/common"
	"gsearch/internal/config"
	"gsearch/internal/graph"
	"gsearch/internal/models"
	"gsearch/internal/queue"
)

// resultWriter persists one published search result.
type resultWriter interface {
	WriteResult(ctx context.Context, result models.SearchResult) error
}

var (
	// Counters for graph-writer throughput exposed on /metrics.
	graphWriterResultsReceived uint64
	graphWriterResultsInvalid  uint64
	graphWriterResultsFailed   uint64
	graphWriterResultsWritten  uint64
	graphWriterItemsWritten    uint64
)

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

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URI, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Password, ""))
	if err != nil {
		logger.Fatal("neo4j driver error", zap.Error(err))
	}
	defer func() {
		if err := driver.Close(context.Background()); err != nil {
			logger.Warn("neo4j close error", zap.Error(err))
		}
	}()

	writer := graph.NewWriter(graph.NewDriver(driver), logger)

	reader := queue.NewReader(cfg.Kafka.Broker, cfg.Kafka.ResultsTopic, cfg.Kafka.GraphGroup)
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("results reader close error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Graph.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.Graph.MetricsAddr, logger)
	}

	logger.Info("graph writer consuming",
		zap.String("topic", cfg.Kafka.ResultsTopic),
		zap.String("group", cfg.Kafka.GraphGroup),
		zap.String("neo4j", cfg.Neo4j.URI),
	)
	consumeResults(ctx, reader, writer, logger)
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

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	body := fmt.Sprintf(
		"gsearch_graph_writer_up 1\n"+
			"gsearch_graph_writer_results_received_total %d\n"+
			"gsearch_graph_writer_results_invalid_total %d\n"+
			"gsearch_graph_writer_results_failed_total %d\n"+
			"gsearch_graph_writer_results_written_total %d\n"+
			"gsearch_graph_writer_items_written_total %d\n",
		atomic.LoadUint64(&graphWriterResultsReceived),
		atomic.LoadUint64(&graphWriterResultsInvalid),
		atomic.LoadUint64(&graphWriterResultsFailed),
		atomic.LoadUint64(&graphWriterResultsWritten),
		atomic.LoadUint64(&graphWriterItemsWritten),
	)
	_, _ = w.Write([]byte(body))
}

// consumeResults writes every result message to the graph until ctx ends.
// Undecodable payloads are committed and dropped; a failed write is left
// uncommitted so the group redelivers it.
func consumeResults(ctx context.Context, reader queue.MessageReader, writer resultWriter, logger *zap.Logger) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("results fetch error", zap.Error(err))
			time.Sleep(500 * time.Millisecond)
			continue
		}

		atomic.AddUint64(&graphWriterResultsReceived, 1)
		var result models.SearchResult
		if err := json.Unmarshal(msg.Value, &result); err != nil {
			atomic.AddUint64(&graphWriterResultsInvalid, 1)
			logger.Warn("invalid result payload", zap.Int64("offset", msg.Offset), zap.Error(err))
			commit(ctx, reader, msg, logger)
			continue
		}

		if err := writer.WriteResult(ctx, result); err != nil {
			atomic.AddUint64(&graphWriterResultsFailed, 1)
			logger.Error("results write error", zap.String("job_id", result.JobID), zap.Error(err))
			continue
		}
		atomic.AddUint64(&graphWriterResultsWritten, 1)
		atomic.AddUint64(&graphWriterItemsWritten, uint64(len(result.Items)))
		logger.Debug("result written", zap.String("job_id", result.JobID), zap.Int("items", len(result.Items)))

		commit(ctx, reader, msg, logger)
	}
}

func commit(ctx context.Context, reader queue.MessageReader, msg kafka.Message, logger *zap.Logger) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		logger.Warn("results commit error", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}
