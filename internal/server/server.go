// Package server exposes the REST API. Handlers are thin glue; all
// pricing and position logic lives in the services packages.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/idoh90/portfoliohub/internal/app"
	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/services/cache"
)

// Server wraps the HTTP server and the application services it fronts.
type Server struct {
	quotes interfaces.QuoteService
	cache  *cache.Manager
	config *common.Config
	server *http.Server
	logger *common.Logger
}

// NewServer creates the REST API server from an initialized app.
func NewServer(a *app.App) *Server {
	return newServer(a.QuoteService, a.Cache, a.Config, a.Logger)
}

func newServer(quotes interfaces.QuoteService, cacheManager *cache.Manager, config *common.Config, logger *common.Logger) *Server {
	s := &Server{
		quotes: quotes,
		cache:  cacheManager,
		config: config,
		logger: logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, logger)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
