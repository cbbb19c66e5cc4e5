package interfaces

import (
	"context"
	"time"

	"github.com/idoh90/portfoliohub/internal/models"
)

// CacheStore is the persistent cache tier. All methods are best-effort
// from the cache manager's perspective: failures are logged and
// swallowed, never propagated to quote resolution.
type CacheStore interface {
	// Load returns every persisted record. The caller discards expired
	// and corrupted entries.
	Load(ctx context.Context) ([]models.CachedRecord, error)

	// Put upserts one record.
	Put(ctx context.Context, rec models.CachedRecord) error

	// Delete removes a record by key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// PurgeOldest deletes the oldest fraction (0..1) of records by
	// timestamp and returns how many were removed.
	PurgeOldest(ctx context.Context, fraction float64) (int, error)

	// SweepExpired removes records whose TTL has elapsed at now.
	SweepExpired(ctx context.Context, now time.Time) (int, error)

	// Clear removes all records.
	Clear(ctx context.Context) error

	// Close releases the underlying store.
	Close() error
}
