// Package app wires configuration, storage, clients, and services into
// a single runnable application core.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/idoh90/portfoliohub/internal/clients/finnhub"
	"github.com/idoh90/portfoliohub/internal/clients/yahoo"
	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/services/cache"
	"github.com/idoh90/portfoliohub/internal/services/quote"
	"github.com/idoh90/portfoliohub/internal/storage/cachedb"
)

// App holds all initialized services and clients.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	Cache        *cache.Manager
	QuoteService interfaces.QuoteService
	StartupTime  time.Time

	cacheStore  interfaces.CacheStore
	sweepCancel context.CancelFunc
}

// NewApp initializes configuration, the cache tiers, provider clients,
// and the quote service. configPath may be empty, in which case only
// PORTFOLIOHUB_CONFIG and environment overrides apply.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("PORTFOLIOHUB_CONFIG")
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	a := &App{
		Config:      config,
		Logger:      logger,
		StartupTime: time.Now(),
	}

	// The persistent tier is best-effort: if it cannot be opened the
	// cache runs memory-only rather than failing startup.
	var store interfaces.CacheStore
	if config.Quote.PersistenceEnabled {
		s, serr := cachedb.NewStore(logger, config.Storage.CachePath)
		if serr != nil {
			logger.Warn().Err(serr).Str("path", config.Storage.CachePath).
				Msg("Persistent cache unavailable, running memory-only")
		} else {
			store = s
			a.cacheStore = s
		}
	}

	a.Cache = cache.NewManager(store, logger,
		cache.WithCapacity(config.Quote.CacheCapacity))

	ctx := context.Background()
	if store != nil {
		a.Cache.LoadPersisted(ctx)
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	a.sweepCancel = cancel
	a.Cache.Start(sweepCtx)

	yahooOpts := []yahoo.ClientOption{
		yahoo.WithLogger(logger),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	}
	if config.Clients.Yahoo.BaseURL != "" {
		yahooOpts = append(yahooOpts, yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL))
	}
	if config.Clients.Yahoo.RateLimit > 0 {
		yahooOpts = append(yahooOpts, yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit))
	}
	yahooClient := yahoo.NewClient(yahooOpts...)

	if config.Clients.Finnhub.APIKey == "" {
		logger.Warn().Msg("Finnhub API key not configured - fallback provider will be unavailable")
	}
	finnhubOpts := []finnhub.ClientOption{
		finnhub.WithLogger(logger),
		finnhub.WithTimeout(config.Clients.Finnhub.GetTimeout()),
	}
	if config.Clients.Finnhub.BaseURL != "" {
		finnhubOpts = append(finnhubOpts, finnhub.WithBaseURL(config.Clients.Finnhub.BaseURL))
	}
	if config.Clients.Finnhub.RateLimit > 0 {
		finnhubOpts = append(finnhubOpts, finnhub.WithRateLimit(config.Clients.Finnhub.RateLimit))
	}
	finnhubClient := finnhub.NewClient(config.Clients.Finnhub.APIKey, finnhubOpts...)

	resolver := quote.NewFailover(yahooClient, finnhubClient, logger,
		quote.WithChunking(config.Quote.BatchChunkSize, config.Quote.BatchChunkPause()))

	a.QuoteService = quote.NewService(resolver, a.Cache, logger,
		quote.WithDefaultTTL(config.Quote.DefaultTTL()),
		quote.WithBreaker(config.Quote.FailureThreshold, config.Quote.Cooldown()),
		quote.WithMinCallInterval(config.Quote.MinCallInterval()))

	logger.Info().
		Str("environment", config.Environment).
		Bool("persistent_cache", store != nil).
		Msg("Application initialized")

	return a, nil
}

// Close stops the cache sweep and releases the persistent store.
func (a *App) Close() {
	if a.sweepCancel != nil {
		a.sweepCancel()
	}
	if a.cacheStore != nil {
		if err := a.cacheStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close cache store")
		}
	}
}
