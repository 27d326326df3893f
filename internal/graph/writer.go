package graph

import (
	"context"
	"net/url"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"gsearch/internal/models"
)

// resultQuery links one query to every result it returned, and each result
// to the site hosting it. Items without a host get no Site node.
const resultQuery = "MERGE (q:Query {text: $query, type: $type}) " +
	"WITH q " +
	"UNWIND $items AS item " +
	"MERGE (r:Result {url: item.url}) " +
	"SET r.type = $type, " +
	"r.title = coalesce(item.title, r.title), " +
	"r.thumbnail_url = coalesce(item.thumbnail_url, r.thumbnail_url) " +
	"MERGE (q)-[rel:RETURNED {job_id: $job_id}]->(r) " +
	"SET rel.rank = item.rank " +
	"WITH r, item WHERE item.host IS NOT NULL " +
	"MERGE (s:Site {host: item.host}) " +
	"MERGE (r)-[:HOSTED_ON]->(s)"

// Writer persists search results as a Query/Result/Site graph.
type Writer struct {
	driver DriverSessioner
	logger *zap.Logger
}

func NewWriter(driver DriverSessioner, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{driver: driver, logger: logger}
}

// WriteResult merges result into the graph. Results with no linkable items
// are skipped without opening a session.
func (w *Writer) WriteResult(ctx context.Context, result models.SearchResult) error {
	query, params, ok := BuildResultQuery(result)
	if !ok {
		return nil
	}
	return w.runWrite(ctx, query, params)
}

func (w *Writer) runWrite(ctx context.Context, query string, params map[string]any) error {
	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(ctx); err != nil {
			w.logger.Warn("neo4j session close error", zap.Error(err))
		}
	}()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

// BuildResultQuery returns the Cypher statement and parameters for result.
// It reports false when the query text is empty or no item has a URL.
func BuildResultQuery(result models.SearchResult) (string, map[string]any, bool) {
	if strings.TrimSpace(result.Request.Query) == "" {
		return "", nil, false
	}
	items := make([]map[string]any, 0, len(result.Items))
	for _, record := range result.Items {
		if record.URL == "" {
			continue
		}
		items = append(items, map[string]any{
			"url":           record.URL,
			"rank":          record.Rank,
			"title":         nullable(record.PlainTitle),
			"thumbnail_url": nullable(record.ThumbnailURL),
			"host":          nullable(HostOf(record.URL)),
		})
	}
	if len(items) == 0 {
		return "", nil, false
	}
	params := map[string]any{
		"query":  result.Request.Query,
		"type":   string(result.Request.Type),
		"job_id": result.JobID,
		"items":  items,
	}
	return resultQuery, params, true
}

// HostOf returns the lower-cased host of rawURL, or "" when it has none.
func HostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
