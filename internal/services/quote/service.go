// Package quote orchestrates quote resolution: cache tiers first, then
// the provider failover layer behind a circuit breaker and a call-rate
// throttle.
package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/models"
	"github.com/idoh90/portfoliohub/internal/services/cache"
)

// Service implements QuoteService over a resolver and the two-tier cache.
//
// Besides the TTL'd cache it keeps a process-lifetime map of the last
// quote seen per symbol. That map backs LocalCachedQuote and the
// serve-stale paths (circuit open, provider failure), where any price
// beats no price.
type Service struct {
	resolver interfaces.QuoteResolver
	cache    *cache.Manager
	breaker  *breaker
	limiter  *rate.Limiter
	logger   *common.Logger

	defaultTTL   time.Duration
	sparklineTTL time.Duration
	now          func() time.Time

	mu    sync.RWMutex
	local map[string]*models.PriceQuote
}

// ServiceOption configures the quote service.
type ServiceOption func(*Service)

// WithDefaultTTL overrides the default quote TTL.
func WithDefaultTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.defaultTTL = d
		}
	}
}

// WithBreaker tunes the circuit breaker.
func WithBreaker(threshold int, cooldown time.Duration) ServiceOption {
	return func(s *Service) {
		if threshold > 0 && cooldown > 0 {
			s.breaker = newBreaker(threshold, cooldown)
		}
	}
}

// WithMinCallInterval sets the minimum spacing between upstream calls.
func WithMinCallInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithClock injects a clock for testing.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the quote service.
func NewService(resolver interfaces.QuoteResolver, cacheManager *cache.Manager, logger *common.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		resolver:     resolver,
		cache:        cacheManager,
		breaker:      newBreaker(common.CircuitFailureLimit, common.CircuitCooldown),
		limiter:      rate.NewLimiter(rate.Every(common.MinProviderCallGap), 1),
		logger:       logger,
		defaultTTL:   common.DefaultQuoteTTL,
		sparklineTTL: common.DefaultSparklineTTL,
		now:          time.Now,
		local:        make(map[string]*models.PriceQuote),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cachedQuote reads the TTL'd cache tier for a symbol.
func (s *Service) cachedQuote(symbol string) *models.PriceQuote {
	v, ok := s.cache.Get(cache.TypeQuote, symbol)
	if !ok {
		return nil
	}
	quote, ok := v.(*models.PriceQuote)
	if !ok {
		return nil
	}
	return quote
}

func (s *Service) rememberLocal(symbol string, quote *models.PriceQuote) {
	s.mu.Lock()
	s.local[symbol] = quote
	s.mu.Unlock()
}

func (s *Service) localQuote(symbol string) *models.PriceQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local[symbol]
}

// GetQuote returns a quote no older than ttl, fetching upstream on a
// cache miss. While the circuit is open any cached value, fresh or
// stale, is served before failing.
func (s *Service) GetQuote(ctx context.Context, rawSymbol string, ttl time.Duration) (*models.PriceQuote, error) {
	symbol, err := models.NormalizeTicker(rawSymbol)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now()

	if cached := s.cachedQuote(symbol); cached != nil {
		s.rememberLocal(symbol, cached)
		if cached.IsFresh(now, ttl) {
			return cached, nil
		}
	}

	stale := s.localQuote(symbol)

	if s.breaker.isOpen(now) {
		if stale != nil {
			s.logger.Debug().Str("symbol", symbol).Msg("Circuit open, serving stale quote")
			return stale, nil
		}
		return nil, &models.CircuitOpenError{RetryAt: s.breaker.retryAt()}
	}

	// Space out upstream calls; this sleeps out the remainder of the
	// minimum interval.
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	quote, err := s.resolver.ResolveQuote(ctx, symbol)
	if err != nil {
		s.breaker.recordFailure(s.now())
		if stale != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed, serving stale quote")
			return stale, nil
		}
		return nil, err
	}

	if verr := quote.Validate(); verr != nil {
		return nil, verr
	}
	quote.Symbol = symbol

	s.breaker.recordSuccess()
	s.rememberLocal(symbol, quote)
	s.cache.Set(ctx, cache.TypeQuote, symbol, quote, ttl)
	return quote, nil
}

// GetQuotesBatched resolves several symbols at once: cache-fresh
// symbols are served directly and only the missing subset goes
// upstream. Partial failure is tolerated; the map holds whatever
// resolved.
func (s *Service) GetQuotesBatched(ctx context.Context, rawSymbols []string, ttl time.Duration) (map[string]*models.PriceQuote, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	// Normalize and dedupe, preserving request order.
	seen := make(map[string]bool, len(rawSymbols))
	symbols := make([]string, 0, len(rawSymbols))
	for _, raw := range rawSymbols {
		symbol, err := models.NormalizeTicker(raw)
		if err != nil {
			return nil, err
		}
		if seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}

	now := s.now()
	result := make(map[string]*models.PriceQuote, len(symbols))
	missing := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		// Remember stale cache hits too; they back the serve-stale
		// paths below, same as in GetQuote.
		if cached := s.cachedQuote(symbol); cached != nil {
			s.rememberLocal(symbol, cached)
			if cached.IsFresh(now, ttl) {
				result[symbol] = cached
				continue
			}
		}
		missing = append(missing, symbol)
	}
	if len(missing) == 0 {
		return result, nil
	}

	fillStale := func() {
		for _, symbol := range missing {
			if _, ok := result[symbol]; ok {
				continue
			}
			if stale := s.localQuote(symbol); stale != nil {
				result[symbol] = stale
			}
		}
	}

	if s.breaker.isOpen(now) {
		fillStale()
		return result, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return result, err
	}

	quotes, err := s.resolver.ResolveQuoteBatch(ctx, missing)
	if err != nil {
		s.breaker.recordFailure(s.now())
		fillStale()
		return result, nil
	}
	s.breaker.recordSuccess()

	for symbol, quote := range quotes {
		if verr := quote.Validate(); verr != nil {
			s.logger.Debug().Err(verr).Str("symbol", symbol).Msg("Dropping malformed batch quote")
			continue
		}
		s.rememberLocal(symbol, quote)
		s.cache.Set(ctx, cache.TypeQuote, symbol, quote, ttl)
		result[symbol] = quote
	}
	return result, nil
}

// GetSparkline returns up to days recent daily closes, oldest first,
// cached under its own type with a slow TTL.
func (s *Service) GetSparkline(ctx context.Context, rawSymbol string, days int) ([]float64, error) {
	symbol, err := models.NormalizeTicker(rawSymbol)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	key := fmt.Sprintf("%s:%d", symbol, days)

	if v, ok := s.cache.Get(cache.TypeSparkline, key); ok {
		if closes, ok := v.([]float64); ok {
			return closes, nil
		}
	}

	if s.breaker.isOpen(s.now()) {
		return nil, &models.CircuitOpenError{RetryAt: s.breaker.retryAt()}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	closes, err := s.resolver.ResolveDailyCloses(ctx, symbol, days)
	if err != nil {
		s.breaker.recordFailure(s.now())
		return nil, err
	}
	s.breaker.recordSuccess()

	s.cache.Set(ctx, cache.TypeSparkline, key, closes, s.sparklineTTL)
	return closes, nil
}

// LocalCachedQuote returns the last quote seen for a symbol regardless
// of freshness, or nil. Invalid tickers return nil.
func (s *Service) LocalCachedQuote(rawSymbol string) *models.PriceQuote {
	symbol, err := models.NormalizeTicker(rawSymbol)
	if err != nil {
		return nil
	}
	if cached := s.cachedQuote(symbol); cached != nil {
		return cached
	}
	return s.localQuote(symbol)
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
