// Package cache provides the two-tier quote cache: an in-memory map
// bounded by entry count, mirrored best-effort into a persistent store.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/models"
)

// TypeQuote is the cache type mirrored into the persistent tier.
const TypeQuote = "quote"

// TypeSparkline caches daily close series; memory tier only.
const TypeSparkline = "sparkline"

const persistPrefix = "ph_cache_"

// purgeFraction of persisted records removed when a write fails.
const purgeFraction = 0.25

// entry is a cached value with its write time and TTL. Entries never
// leave the manager.
type entry struct {
	data      any
	timestamp time.Time
	ttl       time.Duration
}

// Stats are the aggregate cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
}

// Manager owns the in-memory tier and coordinates the persistent one.
type Manager struct {
	mu      sync.Mutex
	entries map[string]entry

	capacity int
	store    interfaces.CacheStore // nil disables persistence
	logger   *common.Logger
	now      func() time.Time

	hits, misses, evictions uint64

	sweepInterval time.Duration
}

// Option configures the manager.
type Option func(*Manager)

// WithCapacity bounds the in-memory tier entry count.
func WithCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithClock injects a clock for testing.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSweepInterval overrides the expiry sweep cadence.
func WithSweepInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.sweepInterval = d
		}
	}
}

// NewManager creates a cache manager. store may be nil to run memory-only.
func NewManager(store interfaces.CacheStore, logger *common.Logger, opts ...Option) *Manager {
	m := &Manager{
		entries:       make(map[string]entry),
		capacity:      common.DefaultCacheCapacity,
		store:         store,
		logger:        logger,
		now:           time.Now,
		sweepInterval: common.CacheSweepInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func memKey(cacheType, key string) string {
	return cacheType + ":" + key
}

// Get returns the cached value for type:key, or nil when absent or
// expired. Expired entries are dropped on read.
func (m *Manager) Get(cacheType, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey(cacheType, key)
	e, ok := m.entries[k]
	if !ok {
		m.misses++
		return nil, false
	}
	if m.now().Sub(e.timestamp) > e.ttl {
		delete(m.entries, k)
		m.misses++
		return nil, false
	}
	m.hits++
	return e.data, true
}

// Set stores a value under type:key, evicting the single oldest entry
// when the memory tier is full. Quote-type entries are mirrored into
// the persistent tier best-effort.
func (m *Manager) Set(ctx context.Context, cacheType, key string, data any, ttl time.Duration) {
	now := m.now()

	m.mu.Lock()
	k := memKey(cacheType, key)
	if _, exists := m.entries[k]; !exists && len(m.entries) >= m.capacity {
		m.evictOldestLocked()
	}
	m.entries[k] = entry{data: data, timestamp: now, ttl: ttl}
	m.mu.Unlock()

	if cacheType == TypeQuote && m.store != nil {
		m.persist(ctx, k, data, now, ttl)
	}
}

// evictOldestLocked removes the entry with the oldest timestamp.
// Caller holds mu.
func (m *Manager) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.timestamp.Before(oldest) {
			oldestKey = k
			oldest = e.timestamp
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
		m.evictions++
	}
}

// persist mirrors one entry into the persistent tier. A failed write
// triggers a purge of the oldest quarter of persisted records as
// backpressure; the write is not retried.
func (m *Manager) persist(ctx context.Context, key string, data any, now time.Time, ttl time.Duration) {
	payload, err := json.Marshal(data)
	if err != nil {
		m.logger.Debug().Err(err).Str("key", key).Msg("Cache entry not serializable, skipping persist")
		return
	}
	rec := models.CachedRecord{
		Key:        persistPrefix + key,
		Data:       payload,
		Timestamp:  now,
		TTLSeconds: int(ttl / time.Second),
	}
	if err := m.store.Put(ctx, rec); err != nil {
		m.logger.Warn().Err(err).Str("key", rec.Key).Msg("Persistent cache write failed, purging oldest entries")
		if _, perr := m.store.PurgeOldest(ctx, purgeFraction); perr != nil {
			m.logger.Debug().Err(perr).Msg("Persistent cache purge failed")
		}
	}
}

// Delete removes an entry from both tiers.
func (m *Manager) Delete(ctx context.Context, cacheType, key string) {
	m.mu.Lock()
	k := memKey(cacheType, key)
	delete(m.entries, k)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Delete(ctx, persistPrefix+k); err != nil {
			m.logger.Debug().Err(err).Msg("Persistent cache delete failed")
		}
	}
}

// Clear empties both tiers and resets the counters.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.hits, m.misses, m.evictions = 0, 0, 0
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Debug().Err(err).Msg("Persistent cache clear failed")
		}
	}
}

// Stats returns the aggregate counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
		Entries:   len(m.entries),
	}
}

// LoadPersisted seeds the memory tier from the persistent one at
// startup. Expired and corrupted records are discarded silently; only
// quote-type records are rehydrated.
func (m *Manager) LoadPersisted(ctx context.Context) {
	if m.store == nil {
		return
	}
	recs, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Persistent cache load failed, starting cold")
		return
	}

	now := m.now()
	loaded := 0
	for _, rec := range recs {
		if rec.Expired(now) {
			if derr := m.store.Delete(ctx, rec.Key); derr != nil {
				m.logger.Debug().Err(derr).Msg("Expired record delete failed")
			}
			continue
		}
		k, ok := strings.CutPrefix(rec.Key, persistPrefix)
		if !ok || !strings.HasPrefix(k, TypeQuote+":") {
			continue
		}
		var quote models.PriceQuote
		if err := json.Unmarshal(rec.Data, &quote); err != nil {
			continue
		}
		m.mu.Lock()
		m.entries[k] = entry{
			data:      &quote,
			timestamp: rec.Timestamp,
			ttl:       time.Duration(rec.TTLSeconds) * time.Second,
		}
		m.mu.Unlock()
		loaded++
	}
	m.logger.Info().Int("loaded", loaded).Int("scanned", len(recs)).Msg("Persistent cache loaded")
}

// Start runs the periodic expiry sweep until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(ctx)
			}
		}
	}()
}

// Sweep removes expired entries from both tiers.
func (m *Manager) Sweep(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for k, e := range m.entries {
		if now.Sub(e.timestamp) > e.ttl {
			delete(m.entries, k)
			removed++
		}
	}
	m.mu.Unlock()

	if m.store != nil {
		if _, err := m.store.SweepExpired(ctx, now); err != nil {
			m.logger.Debug().Err(err).Msg("Persistent cache sweep failed")
		}
	}

	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("Swept expired cache entries")
	}
}
