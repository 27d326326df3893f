// Package paging turns a requested result count into a sequence of bounded
// page fetches and concatenates the pages into one ordered slice.
//
// Fetches are strictly sequential: the offset of each call is the number of
// items actually received so far, so a page cannot be requested before the
// previous one has returned.
package paging

import "context"

// Page is one bounded response from the remote service.
// EstimatedTotal is informational only and never drives pagination.
type Page[T any] struct {
	Items          []T
	EstimatedTotal int
}

// FetchFunc performs exactly one remote call for up to pageSize items
// starting at offset. An empty page is not an error.
type FetchFunc[T any] func(ctx context.Context, offset, pageSize int) (Page[T], error)

// NextPageSize returns how many items to ask for in the next call.
func NextPageSize(remaining, maxPerCall int) int {
	if remaining < maxPerCall {
		return remaining
	}
	return maxPerCall
}

// FetchN collects up to requested items by calling fetch repeatedly.
//
// It stops on an empty page, on a short page, or once requested items are
// collected, and truncates an overshooting last page. Errors returned by fetch
// are passed through untouched and discard everything collected so far.
func FetchN[T any](ctx context.Context, requested, maxPerCall int, fetch FetchFunc[T]) ([]T, error) {
	if requested <= 0 {
		return nil, InvalidArgument("count", "must be positive")
	}
	if maxPerCall <= 0 {
		return nil, InvalidArgument("maxPerCall", "must be positive")
	}
	if fetch == nil {
		return nil, InvalidArgument("fetch", "must not be nil")
	}

	collected := make([]T, 0, requested)
	offset := 0
	for len(collected) < requested {
		pageSize := NextPageSize(requested-len(collected), maxPerCall)
		page, err := fetch(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		collected = append(collected, page.Items...)
		offset += len(page.Items)
		if len(page.Items) < pageSize {
			break
		}
	}

	if len(collected) > requested {
		collected = collected[:requested]
	}
	return collected, nil
}
