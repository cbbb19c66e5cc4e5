// Package interfaces defines service contracts for PortfolioHub
package interfaces

import (
	"context"

	"github.com/idoh90/portfoliohub/internal/models"
)

// QuoteProvider is a single upstream quote source.
type QuoteProvider interface {
	// Name identifies the provider in health tracking and logs.
	Name() string

	// GetQuote retrieves a live quote for one symbol.
	GetQuote(ctx context.Context, symbol string) (*models.PriceQuote, error)

	// GetDailyCloses retrieves up to days recent daily closing prices,
	// oldest first.
	GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// BatchQuoteProvider is implemented by providers with a native
// multi-symbol quote endpoint. The failover layer prefers this path for
// the primary provider and fills gaps through GetQuote.
type BatchQuoteProvider interface {
	QuoteProvider

	// GetQuoteBatch retrieves quotes for several symbols in one call.
	// Symbols the upstream did not return are absent from the map.
	GetQuoteBatch(ctx context.Context, symbols []string) (map[string]*models.PriceQuote, error)
}
