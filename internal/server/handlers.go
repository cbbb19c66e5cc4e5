package server

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/idoh90/portfoliohub/internal/models"
	"github.com/idoh90/portfoliohub/internal/services/position"
)

// --- Market data handlers ---

type quoteResponse struct {
	Quote          *models.PriceQuote `json:"quote"`
	EffectivePrice float64            `json:"effective_price"`
}

// handleQuote handles GET /api/quote/{symbol}?ttl_seconds=30.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/quote/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	ttl := time.Duration(queryInt(r, "ttl_seconds", 0)) * time.Second

	quote, err := s.quotes.GetQuote(r.Context(), symbol, ttl)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, quoteResponse{
		Quote:          quote,
		EffectivePrice: quote.EffectivePrice(),
	})
}

// handleQuotes handles GET /api/quotes?symbols=AAPL,MSFT&ttl_seconds=30.
// Symbols that could not be resolved are absent from the result.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}
	symbols := strings.Split(raw, ",")

	ttl := time.Duration(queryInt(r, "ttl_seconds", 0)) * time.Second

	quotes, err := s.quotes.GetQuotesBatched(r.Context(), symbols, ttl)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"count":  len(quotes),
	})
}

// handleSparkline handles GET /api/sparkline/{symbol}?days=30.
func (s *Server) handleSparkline(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/sparkline/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	days := queryInt(r, "days", 30)

	closes, err := s.quotes.GetSparkline(r.Context(), symbol, days)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": strings.ToUpper(strings.TrimSpace(symbol)),
		"closes": closes,
	})
}

// --- Position analytics handlers ---

type positionMetricsRequest struct {
	Lots         []models.Lot `json:"lots"`
	CurrentPrice float64      `json:"current_price"`
	PrevClose    float64      `json:"prev_close"`
}

type positionMetricsResponse struct {
	Metrics     models.PositionMetrics `json:"metrics"`
	RealizedPnL float64                `json:"realized_pnl"`
}

// handlePositionMetrics handles POST /api/position/metrics. The caller
// supplies the lot ledger and prices; nothing is persisted server-side.
func (s *Server) handlePositionMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req positionMetricsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Lots) == 0 {
		WriteError(w, http.StatusBadRequest, "at least one lot is required")
		return
	}

	now := time.Now()
	for i := range req.Lots {
		if err := req.Lots[i].Validate(now); err != nil {
			WriteServiceError(w, err)
			return
		}
	}

	WriteJSON(w, http.StatusOK, positionMetricsResponse{
		Metrics:     position.PositionMetrics(req.Lots, req.CurrentPrice, req.PrevClose),
		RealizedPnL: position.RealizedPLFIFO(req.Lots),
	})
}

type breakevenRequest struct {
	Type       string  `json:"type"`
	Action     string  `json:"action"`
	Strike     float64 `json:"strike"`
	Premium    float64 `json:"premium"`
	Contracts  int     `json:"contracts"`
	Multiplier float64 `json:"multiplier"`
}

// breakevenResponse flattens the unbounded sentinels into nullable
// fields: an infinite max loss does not survive JSON encoding.
type breakevenResponse struct {
	Breakeven float64  `json:"breakeven"`
	MaxProfit *float64 `json:"max_profit"` // null = unbounded
	MaxLoss   *float64 `json:"max_loss"`   // null = unbounded
}

// handlePositionBreakeven handles POST /api/position/breakeven.
func (s *Server) handlePositionBreakeven(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req breakevenRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Multiplier <= 0 {
		req.Multiplier = 100
	}
	if req.Contracts <= 0 {
		req.Contracts = 1
	}

	result, err := position.OptionBreakeven(
		position.OptionType(strings.ToLower(req.Type)),
		position.OptionAction(strings.ToLower(req.Action)),
		req.Strike, req.Premium, req.Contracts, req.Multiplier)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	resp := breakevenResponse{
		Breakeven: result.Breakeven,
		MaxProfit: result.MaxProfit,
	}
	if !math.IsInf(result.MaxLoss, 1) {
		maxLoss := result.MaxLoss
		resp.MaxLoss = &maxLoss
	}
	WriteJSON(w, http.StatusOK, resp)
}
