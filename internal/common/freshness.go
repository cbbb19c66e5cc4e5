// Package common provides shared utilities for PortfolioHub
package common

import "time"

// Default TTLs and intervals for the quote pipeline.
const (
	DefaultQuoteTTL      = 30 * time.Second
	DefaultSparklineTTL  = 1 * time.Hour
	CacheSweepInterval   = 60 * time.Second
	HealthRecheckWindow  = 60 * time.Second // unhealthy providers decay back to healthy after this
	CircuitCooldown      = 60 * time.Second
	CircuitFailureLimit  = 3
	MinProviderCallGap   = 500 * time.Millisecond
	BatchChunkSize       = 5
	BatchChunkDelay      = 1000 * time.Millisecond
	DefaultCacheCapacity = 1000
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
