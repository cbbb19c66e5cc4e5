package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ValidationError reports a malformed entity (ticker, lot, quote payload)
// with per-field messages. Never retried; surfaced straight to the caller.
type ValidationError struct {
	Entity string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid %s", e.Entity)
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return fmt.Sprintf("invalid %s (%s)", e.Entity, strings.Join(parts, "; "))
}

// ProviderErrorKind classifies upstream quote source failures.
type ProviderErrorKind string

const (
	ProviderErrInvalidKey  ProviderErrorKind = "invalid_api_key"
	ProviderErrNotFound    ProviderErrorKind = "symbol_not_found"
	ProviderErrRateLimited ProviderErrorKind = "rate_limited"
	ProviderErrHTTP        ProviderErrorKind = "http_error"
)

// ProviderError is an upstream quote source failure. It drives provider
// health transitions and only reaches callers once every provider is
// exhausted.
type ProviderError struct {
	Provider   string
	Kind       ProviderErrorKind
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %s (status %d)", e.Provider, e.Kind, e.Message, e.StatusCode)
}

// CircuitOpenError is returned when the quote circuit is open and no
// cached value exists to serve instead.
type CircuitOpenError struct {
	RetryAt time.Time
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("quote service temporarily unavailable, retry after %s", e.RetryAt.Format(time.RFC3339))
}

// CacheIOError wraps a persistent-tier read/write/parse failure. The
// persistent tier is a pure optimization, so these are logged and
// swallowed, never propagated.
type CacheIOError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }
