package interfaces

import (
	"context"
	"time"

	"github.com/idoh90/portfoliohub/internal/models"
)

// QuoteService resolves quotes through the cache, circuit breaker, and
// provider failover layers.
type QuoteService interface {
	// GetQuote returns a quote no older than ttl, fetching upstream on a
	// cache miss. ttl <= 0 selects the configured default (30s).
	GetQuote(ctx context.Context, symbol string, ttl time.Duration) (*models.PriceQuote, error)

	// GetQuotesBatched resolves several symbols at once, serving fresh
	// cache entries and fetching only the missing subset. Partial batch
	// failure is tolerated: the map holds whatever resolved.
	GetQuotesBatched(ctx context.Context, symbols []string, ttl time.Duration) (map[string]*models.PriceQuote, error)

	// GetSparkline returns recent daily closes for a symbol, oldest first.
	GetSparkline(ctx context.Context, symbol string, days int) ([]float64, error)

	// LocalCachedQuote returns the in-memory cached quote regardless of
	// the caller's freshness needs, or nil when absent.
	LocalCachedQuote(symbol string) *models.PriceQuote
}

// QuoteResolver is the provider failover layer consumed by the quote
// service: it hides primary/fallback selection and health tracking.
type QuoteResolver interface {
	ResolveQuote(ctx context.Context, symbol string) (*models.PriceQuote, error)
	ResolveQuoteBatch(ctx context.Context, symbols []string) (map[string]*models.PriceQuote, error)
	ResolveDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}
