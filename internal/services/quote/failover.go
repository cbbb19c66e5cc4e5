package quote

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/models"
)

// Failover wraps a primary and a fallback quote provider with health
// tracking. A provider marked unhealthy decays back to healthy after
// the recheck window, so a previously failing upstream gets retried
// periodically rather than being benched forever.
type Failover struct {
	primary  interfaces.QuoteProvider
	fallback interfaces.QuoteProvider
	logger   *common.Logger

	mu          sync.Mutex
	unhealthyAt map[string]time.Time // provider name -> when marked unhealthy

	recheck    time.Duration
	chunkSize  int
	chunkDelay time.Duration
	now        func() time.Time
}

// FailoverOption configures the failover layer.
type FailoverOption func(*Failover)

// WithRecheckWindow overrides the health-decay interval.
func WithRecheckWindow(d time.Duration) FailoverOption {
	return func(f *Failover) {
		if d > 0 {
			f.recheck = d
		}
	}
}

// WithChunking overrides batch chunk size and inter-chunk delay.
func WithChunking(size int, delay time.Duration) FailoverOption {
	return func(f *Failover) {
		if size > 0 {
			f.chunkSize = size
		}
		if delay >= 0 {
			f.chunkDelay = delay
		}
	}
}

// WithFailoverClock injects a clock for testing.
func WithFailoverClock(now func() time.Time) FailoverOption {
	return func(f *Failover) { f.now = now }
}

// NewFailover creates the failover layer over two providers.
func NewFailover(primary, fallback interfaces.QuoteProvider, logger *common.Logger, opts ...FailoverOption) *Failover {
	f := &Failover{
		primary:     primary,
		fallback:    fallback,
		logger:      logger,
		unhealthyAt: make(map[string]time.Time),
		recheck:     common.HealthRecheckWindow,
		chunkSize:   common.BatchChunkSize,
		chunkDelay:  common.BatchChunkDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// healthy reports whether a provider should be attempted: true when
// never marked unhealthy, or when the mark is older than the recheck
// window.
func (f *Failover) healthy(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	markedAt, ok := f.unhealthyAt[name]
	if !ok {
		return true
	}
	return f.now().Sub(markedAt) >= f.recheck
}

func (f *Failover) markHealthy(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.unhealthyAt, name)
}

func (f *Failover) markUnhealthy(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unhealthyAt[name] = f.now()
}

// ResolveQuote tries primary, then fallback, then the primary once more
// as a last resort when both were skipped as unhealthy.
func (f *Failover) ResolveQuote(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	attempted := false
	var lastErr error

	if f.healthy(f.primary.Name()) {
		attempted = true
		quote, err := f.primary.GetQuote(ctx, symbol)
		if err == nil {
			f.markHealthy(f.primary.Name())
			return quote, nil
		}
		lastErr = err
		f.markUnhealthy(f.primary.Name())
		f.logger.Warn().Err(err).Str("provider", f.primary.Name()).Str("symbol", symbol).Msg("Primary provider failed")
	}

	if f.healthy(f.fallback.Name()) {
		attempted = true
		quote, err := f.fallback.GetQuote(ctx, symbol)
		if err == nil {
			f.markHealthy(f.fallback.Name())
			return quote, nil
		}
		lastErr = err
		f.markUnhealthy(f.fallback.Name())
		f.logger.Warn().Err(err).Str("provider", f.fallback.Name()).Str("symbol", symbol).Msg("Fallback provider failed")
	}

	if !attempted {
		// Both benched: retry the primary once as a last resort.
		quote, err := f.primary.GetQuote(ctx, symbol)
		if err == nil {
			f.markHealthy(f.primary.Name())
			return quote, nil
		}
		lastErr = err
		f.markUnhealthy(f.primary.Name())
	}

	return nil, &models.ProviderError{
		Provider: "failover",
		Kind:     models.ProviderErrHTTP,
		Message:  "all providers failed: " + lastErr.Error(),
	}
}

// ResolveQuoteBatch prefers the primary's native batch endpoint, filling
// symbols it didn't return one by one. When the batch call itself fails
// (or the primary has no batch endpoint / is unhealthy), all symbols go
// through the single-symbol failover path in fixed-size chunks with a
// delay between chunks. Individual symbol failures are omitted from the
// result, never propagated.
func (f *Failover) ResolveQuoteBatch(ctx context.Context, symbols []string) (map[string]*models.PriceQuote, error) {
	result := make(map[string]*models.PriceQuote, len(symbols))

	if batcher, ok := f.primary.(interfaces.BatchQuoteProvider); ok && f.healthy(f.primary.Name()) {
		quotes, err := batcher.GetQuoteBatch(ctx, symbols)
		if err == nil {
			f.markHealthy(f.primary.Name())
			for symbol, quote := range quotes {
				result[symbol] = quote
			}
			// Fill in symbols the batch endpoint skipped.
			for _, symbol := range symbols {
				if _, ok := result[symbol]; ok {
					continue
				}
				quote, rerr := f.ResolveQuote(ctx, symbol)
				if rerr != nil {
					f.logger.Debug().Err(rerr).Str("symbol", symbol).Msg("Batch fill-in failed, omitting symbol")
					continue
				}
				result[symbol] = quote
			}
			return result, nil
		}
		f.markUnhealthy(f.primary.Name())
		f.logger.Warn().Err(err).Str("provider", f.primary.Name()).Msg("Native batch failed, falling back to chunked resolution")
	}

	var resultMu sync.Mutex
	for start := 0; start < len(symbols); start += f.chunkSize {
		end := start + f.chunkSize
		if end > len(symbols) {
			end = len(symbols)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, symbol := range symbols[start:end] {
			symbol := symbol
			g.Go(func() error {
				quote, err := f.ResolveQuote(gctx, symbol)
				if err != nil {
					f.logger.Debug().Err(err).Str("symbol", symbol).Msg("Chunked resolution failed, omitting symbol")
					return nil // tolerate per-symbol failure
				}
				resultMu.Lock()
				result[symbol] = quote
				resultMu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}

		if end < len(symbols) {
			if err := sleepCtx(ctx, f.chunkDelay); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// ResolveDailyCloses fetches a daily close series through the same
// primary/fallback order as single quotes.
func (f *Failover) ResolveDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	attempted := false
	var lastErr error

	if f.healthy(f.primary.Name()) {
		attempted = true
		closes, err := f.primary.GetDailyCloses(ctx, symbol, days)
		if err == nil {
			f.markHealthy(f.primary.Name())
			return closes, nil
		}
		lastErr = err
		f.markUnhealthy(f.primary.Name())
	}

	if f.healthy(f.fallback.Name()) {
		attempted = true
		closes, err := f.fallback.GetDailyCloses(ctx, symbol, days)
		if err == nil {
			f.markHealthy(f.fallback.Name())
			return closes, nil
		}
		lastErr = err
		f.markUnhealthy(f.fallback.Name())
	}

	if !attempted {
		closes, err := f.primary.GetDailyCloses(ctx, symbol, days)
		if err == nil {
			f.markHealthy(f.primary.Name())
			return closes, nil
		}
		lastErr = err
		f.markUnhealthy(f.primary.Name())
	}

	return nil, &models.ProviderError{
		Provider: "failover",
		Kind:     models.ProviderErrHTTP,
		Message:  "all providers failed: " + lastErr.Error(),
	}
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Failover implements QuoteResolver
var _ interfaces.QuoteResolver = (*Failover)(nil)
