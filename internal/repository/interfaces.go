package repository

import (
	"context"
)

// KVRepository persists small string values under fixed keys.
// Multi-key writes and deletes are atomic: readers never observe a partial update.
type KVRepository interface {
	// Get returns the values present for the given keys; absent keys are omitted
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// DownloadRepository handles resource download counters
type DownloadRepository interface {
	Increment(ctx context.Context, resourceID string) (int, error)
	GetAll(ctx context.Context) (map[string]int, error)
}
