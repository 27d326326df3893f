package gsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gsearch/internal/models"
	"gsearch/internal/paging"
)

// decodeFunc maps one raw result object onto its typed model.
type decodeFunc[T any] func(raw json.RawMessage) (T, error)

// pageFetcher returns a FetchFunc that issues one GET per call with params
// bound. params must already hold q and the type's filters.
func pageFetcher[T any](c *Client, searchType models.SearchType, params url.Values, decode decodeFunc[T]) paging.FetchFunc[T] {
	return func(ctx context.Context, offset, pageSize int) (paging.Page[T], error) {
		start := time.Now()
		page, status, err := fetchPage(ctx, c, searchType, params, offset, pageSize, decode)
		elapsed := time.Since(start)
		if err != nil {
			fetchErr := &paging.FetchError{
				Service:  string(searchType),
				Offset:   offset,
				PageSize: pageSize,
				Status:   status,
				Err:      err,
			}
			if c.observer != nil {
				c.observer(searchType, elapsed, fetchErr)
			}
			c.logger.Debug("page fetch failed",
				zap.String("service", string(searchType)),
				zap.Int("offset", offset),
				zap.Int("page_size", pageSize),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			return paging.Page[T]{}, fetchErr
		}
		if c.observer != nil {
			c.observer(searchType, elapsed, nil)
		}
		c.logger.Debug("page fetched",
			zap.String("service", string(searchType)),
			zap.Int("offset", offset),
			zap.Int("page_size", pageSize),
			zap.Int("received", len(page.Items)),
			zap.Duration("elapsed", elapsed),
		)
		return page, nil
	}
}

// fetchPage returns the decoded page and the HTTP or envelope status.
func fetchPage[T any](ctx context.Context, c *Client, searchType models.SearchType, params url.Values, offset, pageSize int, decode decodeFunc[T]) (paging.Page[T], int, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set("v", protocolVersion)
	query.Set("start", strconv.Itoa(offset))
	query.Set("rsz", strconv.Itoa(pageSize))
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	if c.language != "" {
		query.Set("hl", c.language)
	}

	body, status, err := c.getJSON(ctx, c.endpointURL(searchType)+"?"+query.Encode())
	if err != nil {
		return paging.Page[T]{}, status, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return paging.Page[T]{}, status, fmt.Errorf("decode envelope: %w", err)
	}
	if int(env.ResponseStatus) != http.StatusOK {
		return paging.Page[T]{}, int(env.ResponseStatus), fmt.Errorf("service responded %d: %s", env.ResponseStatus, env.details())
	}
	if env.ResponseData == nil {
		return paging.Page[T]{}, status, nil
	}

	page := paging.Page[T]{
		Items:          make([]T, 0, len(env.ResponseData.Results)),
		EstimatedTotal: int(env.ResponseData.Cursor.EstimatedResultCount),
	}
	for i, raw := range env.ResponseData.Results {
		item, err := decode(raw)
		if err != nil {
			return paging.Page[T]{}, status, fmt.Errorf("decode result %d: %w", i, err)
		}
		page.Items = append(page.Items, item)
	}
	return page, status, nil
}
