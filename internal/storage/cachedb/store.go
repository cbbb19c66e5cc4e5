// Package cachedb implements the persistent cache tier using BadgerHold.
// It holds mirrored quote cache entries so a restart can serve prices
// before the first upstream fetch completes.
package cachedb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/models"
)

// record is the stored form of a models.CachedRecord.
type record struct {
	Key        string `badgerhold:"key"`
	Data       []byte
	Timestamp  time.Time
	TTLSeconds int
}

// Store implements interfaces.CacheStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (creating if needed) the cache database at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Cache DB opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Load(_ context.Context) ([]models.CachedRecord, error) {
	var recs []record
	if err := s.db.Find(&recs, nil); err != nil {
		return nil, &models.CacheIOError{Op: "load", Err: err}
	}
	out := make([]models.CachedRecord, len(recs))
	for i, r := range recs {
		out[i] = models.CachedRecord{
			Key:        r.Key,
			Data:       r.Data,
			Timestamp:  r.Timestamp,
			TTLSeconds: r.TTLSeconds,
		}
	}
	return out, nil
}

func (s *Store) Put(_ context.Context, rec models.CachedRecord) error {
	stored := record{
		Key:        rec.Key,
		Data:       rec.Data,
		Timestamp:  rec.Timestamp,
		TTLSeconds: rec.TTLSeconds,
	}
	if err := s.db.Upsert(rec.Key, stored); err != nil {
		return &models.CacheIOError{Op: "put", Key: rec.Key, Err: err}
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := s.db.Delete(key, record{}); err != nil && err != badgerhold.ErrNotFound {
		return &models.CacheIOError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// PurgeOldest removes the oldest fraction of records by timestamp. Used
// as backpressure when a write fails.
func (s *Store) PurgeOldest(_ context.Context, fraction float64) (int, error) {
	if fraction <= 0 {
		return 0, nil
	}
	var recs []record
	if err := s.db.Find(&recs, nil); err != nil {
		return 0, &models.CacheIOError{Op: "purge", Err: err}
	}
	if len(recs) == 0 {
		return 0, nil
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})

	n := int(float64(len(recs)) * fraction)
	if n < 1 {
		n = 1
	}
	if n > len(recs) {
		n = len(recs)
	}

	purged := 0
	for _, r := range recs[:n] {
		if err := s.db.Delete(r.Key, record{}); err != nil && err != badgerhold.ErrNotFound {
			continue
		}
		purged++
	}
	s.logger.Debug().Int("purged", purged).Msg("Purged oldest cache records")
	return purged, nil
}

func (s *Store) SweepExpired(_ context.Context, now time.Time) (int, error) {
	var recs []record
	if err := s.db.Find(&recs, nil); err != nil {
		return 0, &models.CacheIOError{Op: "sweep", Err: err}
	}

	swept := 0
	for _, r := range recs {
		if now.Sub(r.Timestamp) <= time.Duration(r.TTLSeconds)*time.Second {
			continue
		}
		if err := s.db.Delete(r.Key, record{}); err != nil && err != badgerhold.ErrNotFound {
			continue
		}
		swept++
	}
	return swept, nil
}

func (s *Store) Clear(_ context.Context) error {
	if err := s.db.DeleteMatching(&record{}, nil); err != nil {
		return &models.CacheIOError{Op: "clear", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements CacheStore
var _ interfaces.CacheStore = (*Store)(nil)
