package models

import "time"

// CachedRecord is the persisted form of a cache entry. Keys carry the
// "ph_cache_<type>:<symbol>" prefix; Data is the compact JSON encoding
// of the cached value.
type CachedRecord struct {
	Key        string    `json:"key"`
	Data       []byte    `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
	TTLSeconds int       `json:"ttl_seconds"`
}

// Expired reports whether the record has outlived its TTL at now.
func (r *CachedRecord) Expired(now time.Time) bool {
	return now.Sub(r.Timestamp) > time.Duration(r.TTLSeconds)*time.Second
}
