package store

import (
	"context"
	"time"

	"gsearch/internal/models"
)

// StatusStore persists search job status.
type StatusStore interface {
	SetStatus(ctx context.Context, status models.SearchStatus) error
	GetStatus(ctx context.Context, jobID string) (models.SearchStatus, bool, error)
}

// DedupeStore claims job ids so a redelivered job runs once.
type DedupeStore interface {
	Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error)
}
