package cachedb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func rec(key string, ts time.Time, ttlSeconds int) models.CachedRecord {
	return models.CachedRecord{
		Key:        key,
		Data:       []byte(`{"symbol":"` + key + `"}`),
		Timestamp:  ts,
		TTLSeconds: ttlSeconds,
	}
}

func TestStorePutLoadDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, rec("ph_cache_quote:AAPL", ts, 30)))
	require.NoError(t, store.Put(ctx, rec("ph_cache_quote:MSFT", ts, 30)))

	recs, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.NoError(t, store.Delete(ctx, "ph_cache_quote:AAPL"))
	recs, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ph_cache_quote:MSFT", recs[0].Key)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete(ctx, "ph_cache_quote:AAPL"))
}

func TestStorePutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, rec("ph_cache_quote:AAPL", ts, 30)))
	updated := rec("ph_cache_quote:AAPL", ts.Add(time.Minute), 60)
	require.NoError(t, store.Put(ctx, updated))

	recs, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 60, recs[0].TTLSeconds)
	assert.True(t, recs[0].Timestamp.Equal(updated.Timestamp))
}

func TestStorePurgeOldest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		key := fmt.Sprintf("ph_cache_quote:SYM%d", i)
		require.NoError(t, store.Put(ctx, rec(key, base.Add(time.Duration(i)*time.Minute), 300)))
	}

	purged, err := store.PurgeOldest(ctx, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	recs, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 6)
	for _, r := range recs {
		assert.NotEqual(t, "ph_cache_quote:SYM0", r.Key)
		assert.NotEqual(t, "ph_cache_quote:SYM1", r.Key)
	}
}

func TestStorePurgeOldestRemovesAtLeastOne(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, rec("ph_cache_quote:AAPL", ts, 30)))

	purged, err := store.PurgeOldest(ctx, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 1, purged, "a tiny store still sheds one record")
}

func TestStoreSweepExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, rec("ph_cache_quote:OLD", base.Add(-time.Hour), 30)))
	require.NoError(t, store.Put(ctx, rec("ph_cache_quote:FRESH", base, 300)))

	swept, err := store.SweepExpired(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	recs, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ph_cache_quote:FRESH", recs[0].Key)
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, rec("ph_cache_quote:AAPL", ts, 30)))
	require.NoError(t, store.Clear(ctx))

	recs, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
