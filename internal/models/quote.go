// Package models defines data structures for PortfolioHub
package models

import (
	"regexp"
	"strings"
	"time"
)

// MarketState indicates the trading session a quote was captured in.
type MarketState string

const (
	MarketStateOpen    MarketState = "open"
	MarketStateClosed  MarketState = "closed"
	MarketStatePre     MarketState = "pre"
	MarketStatePost    MarketState = "post"
	MarketStateUnknown MarketState = "unknown"
)

// tickerPattern matches a normalized ticker: leading letter, then letters,
// digits, dots or dashes. Length is checked separately (1-10 chars).
var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]*$`)

// NormalizeTicker trims and uppercases a raw ticker and validates it.
// Invalid tickers fail here, before any cache or network access.
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if len(ticker) < 1 || len(ticker) > 10 {
		return "", &ValidationError{
			Entity: "ticker",
			Fields: map[string]string{"symbol": "must be 1-10 characters"},
		}
	}
	if !tickerPattern.MatchString(ticker) {
		return "", &ValidationError{
			Entity: "ticker",
			Fields: map[string]string{"symbol": "must start with a letter and contain only A-Z, 0-9, '.' or '-'"},
		}
	}
	return ticker, nil
}

// PriceQuote holds a point-in-time price snapshot for a symbol.
// Quotes are replaced on every successful fetch, never mutated in place.
type PriceQuote struct {
	Symbol      string      `json:"symbol"`
	Last        *float64    `json:"last"`       // nil when the source had no live trade price
	PrevClose   *float64    `json:"prev_close"` // nil when unavailable
	AsOf        time.Time   `json:"as_of"`
	Currency    string      `json:"currency"`
	MarketState MarketState `json:"market_state"`
}

// Validate checks the quote shape returned by an upstream provider.
func (q *PriceQuote) Validate() error {
	fields := map[string]string{}
	if q.Symbol == "" {
		fields["symbol"] = "missing"
	}
	if q.Last == nil && q.PrevClose == nil {
		fields["last"] = "quote carries neither a last price nor a previous close"
	}
	if q.Last != nil && *q.Last < 0 {
		fields["last"] = "negative price"
	}
	if q.PrevClose != nil && *q.PrevClose < 0 {
		fields["prev_close"] = "negative price"
	}
	if q.AsOf.IsZero() {
		fields["as_of"] = "missing timestamp"
	}
	if len(fields) > 0 {
		return &ValidationError{Entity: "quote", Fields: fields}
	}
	return nil
}

// IsFresh reports whether the quote is still usable for the given TTL.
func (q *PriceQuote) IsFresh(now time.Time, ttl time.Duration) bool {
	if q == nil || q.AsOf.IsZero() {
		return false
	}
	return now.Sub(q.AsOf) <= ttl
}

// EffectivePrice returns a display-safe price: the last trade if present,
// else the previous close, else 0.
func (q *PriceQuote) EffectivePrice() float64 {
	if q == nil {
		return 0
	}
	if q.Last != nil {
		return *q.Last
	}
	if q.PrevClose != nil {
		return *q.PrevClose
	}
	return 0
}
