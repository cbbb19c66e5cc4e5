package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/models"
)

// fakeStore is an in-memory CacheStore with failure injection.
type fakeStore struct {
	recs       map[string]models.CachedRecord
	failPuts   bool
	purgeCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: make(map[string]models.CachedRecord)}
}

func (f *fakeStore) Load(_ context.Context) ([]models.CachedRecord, error) {
	out := make([]models.CachedRecord, 0, len(f.recs))
	for _, r := range f.recs {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Put(_ context.Context, rec models.CachedRecord) error {
	if f.failPuts {
		return &models.CacheIOError{Op: "put", Key: rec.Key, Err: errors.New("quota exceeded")}
	}
	f.recs[rec.Key] = rec
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.recs, key)
	return nil
}

func (f *fakeStore) PurgeOldest(_ context.Context, fraction float64) (int, error) {
	f.purgeCalls++
	return 0, nil
}

func (f *fakeStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
	n := 0
	for k, r := range f.recs {
		if r.Expired(now) {
			delete(f.recs, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Clear(_ context.Context) error {
	f.recs = make(map[string]models.CachedRecord)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(store *fakeStore, clock *testClock, opts ...Option) *Manager {
	base := []Option{WithClock(clock.Now)}
	if store == nil {
		return NewManager(nil, common.NewSilentLogger(), append(base, opts...)...)
	}
	return NewManager(store, common.NewSilentLogger(), append(base, opts...)...)
}

func TestRoundTripWithinTTL(t *testing.T) {
	clock := &testClock{now: time.Now()}
	m := newTestManager(nil, clock)

	m.Set(context.Background(), TypeQuote, "AAPL", "payload", 30*time.Second)

	got, ok := m.Get(TypeQuote, "AAPL")
	require.True(t, ok)
	assert.Equal(t, "payload", got)

	clock.Advance(31 * time.Second)
	_, ok = m.Get(TypeQuote, "AAPL")
	assert.False(t, ok, "entry past TTL must read as absent")
}

func TestStatsCounters(t *testing.T) {
	clock := &testClock{now: time.Now()}
	m := newTestManager(nil, clock)

	m.Get(TypeQuote, "MISS")
	m.Set(context.Background(), TypeQuote, "AAPL", 1, time.Minute)
	m.Get(TypeQuote, "AAPL")
	m.Get(TypeQuote, "AAPL")

	stats := m.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCapacityEvictsOldestEntry(t *testing.T) {
	clock := &testClock{now: time.Now()}
	m := newTestManager(nil, clock, WithCapacity(2))

	m.Set(context.Background(), TypeQuote, "OLD", 1, time.Hour)
	clock.Advance(time.Second)
	m.Set(context.Background(), TypeQuote, "MID", 2, time.Hour)
	clock.Advance(time.Second)
	m.Set(context.Background(), TypeQuote, "NEW", 3, time.Hour)

	_, ok := m.Get(TypeQuote, "OLD")
	assert.False(t, ok, "oldest entry must be evicted")
	_, ok = m.Get(TypeQuote, "MID")
	assert.True(t, ok)
	_, ok = m.Get(TypeQuote, "NEW")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), m.Stats().Evictions)
}

func TestQuoteEntriesMirroredToPersistentTier(t *testing.T) {
	clock := &testClock{now: time.Now()}
	store := newFakeStore()
	m := newTestManager(store, clock)

	last := 101.5
	quote := &models.PriceQuote{Symbol: "AAPL", Last: &last, AsOf: clock.Now(), Currency: "USD", MarketState: models.MarketStateOpen}
	m.Set(context.Background(), TypeQuote, "AAPL", quote, 30*time.Second)
	m.Set(context.Background(), TypeSparkline, "AAPL", []float64{1, 2}, time.Hour)

	require.Len(t, store.recs, 1, "only quote-type entries are persisted")
	rec, ok := store.recs["ph_cache_quote:AAPL"]
	require.True(t, ok)
	assert.Equal(t, 30, rec.TTLSeconds)
}

func TestPersistFailureTriggersPurge(t *testing.T) {
	clock := &testClock{now: time.Now()}
	store := newFakeStore()
	store.failPuts = true
	m := newTestManager(store, clock)

	m.Set(context.Background(), TypeQuote, "AAPL", "x", 30*time.Second)

	assert.Equal(t, 1, store.purgeCalls)
	// Memory tier still serves the entry.
	_, ok := m.Get(TypeQuote, "AAPL")
	assert.True(t, ok)
}

func TestLoadPersistedKeepsOnlyFreshQuotes(t *testing.T) {
	clock := &testClock{now: time.Now()}
	store := newFakeStore()

	last := 42.0
	fresh, err := json.Marshal(&models.PriceQuote{Symbol: "AAPL", Last: &last, AsOf: clock.Now(), Currency: "USD", MarketState: models.MarketStateClosed})
	require.NoError(t, err)

	store.recs["ph_cache_quote:AAPL"] = models.CachedRecord{
		Key: "ph_cache_quote:AAPL", Data: fresh, Timestamp: clock.Now().Add(-10 * time.Second), TTLSeconds: 30,
	}
	store.recs["ph_cache_quote:MSFT"] = models.CachedRecord{
		Key: "ph_cache_quote:MSFT", Data: fresh, Timestamp: clock.Now().Add(-2 * time.Minute), TTLSeconds: 30,
	}
	store.recs["ph_cache_quote:BAD"] = models.CachedRecord{
		Key: "ph_cache_quote:BAD", Data: []byte("{corrupt"), Timestamp: clock.Now(), TTLSeconds: 30,
	}

	m := newTestManager(store, clock)
	m.LoadPersisted(context.Background())

	got, ok := m.Get(TypeQuote, "AAPL")
	require.True(t, ok)
	quote, ok := got.(*models.PriceQuote)
	require.True(t, ok)
	assert.Equal(t, "AAPL", quote.Symbol)

	_, ok = m.Get(TypeQuote, "MSFT")
	assert.False(t, ok, "expired record must be discarded")
	_, ok = m.Get(TypeQuote, "BAD")
	assert.False(t, ok, "corrupted record must be discarded silently")
	_, stillThere := store.recs["ph_cache_quote:MSFT"]
	assert.False(t, stillThere, "expired record removed from persistent tier")
}

func TestSweepRemovesExpiredFromBothTiers(t *testing.T) {
	clock := &testClock{now: time.Now()}
	store := newFakeStore()
	m := newTestManager(store, clock)

	m.Set(context.Background(), TypeQuote, "AAPL", "x", 10*time.Second)
	m.Set(context.Background(), TypeQuote, "MSFT", "y", time.Hour)

	clock.Advance(time.Minute)
	m.Sweep(context.Background())

	assert.Equal(t, 1, m.Stats().Entries)
	_, ok := store.recs["ph_cache_quote:AAPL"]
	assert.False(t, ok)
	_, ok = store.recs["ph_cache_quote:MSFT"]
	assert.True(t, ok)
}

func TestClearIsIdempotent(t *testing.T) {
	clock := &testClock{now: time.Now()}
	store := newFakeStore()
	m := newTestManager(store, clock)

	m.Set(context.Background(), TypeQuote, "AAPL", "x", time.Minute)
	m.Get(TypeQuote, "AAPL")

	m.Clear(context.Background())
	m.Clear(context.Background())

	stats := m.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.Zero(t, stats.Evictions)
	assert.Zero(t, stats.Entries)
	assert.Empty(t, store.recs)
}
