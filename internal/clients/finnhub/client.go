// Package finnhub provides a quote client for the Finnhub API
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/models"
)

const (
	ProviderName     = "finnhub"
	DefaultBaseURL   = "https://finnhub.io/api/v1"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the QuoteProvider interface. Finnhub exposes no
// multi-symbol quote endpoint, so the client is single-symbol only.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client (used by tests)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Finnhub client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Name() string { return ProviderName }

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if c.apiKey == "" {
		return &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrInvalidKey,
			Message:  "API key not configured",
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Finnhub API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrHTTP,
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return classifyStatus(resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrHTTP,
			Message:  fmt.Sprintf("decode response: %v", err),
		}
	}

	return nil
}

func classifyStatus(status int, body string) *models.ProviderError {
	kind := models.ProviderErrHTTP
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = models.ProviderErrInvalidKey
	case http.StatusNotFound:
		kind = models.ProviderErrNotFound
	case http.StatusTooManyRequests:
		kind = models.ProviderErrRateLimited
	}
	return &models.ProviderError{
		Provider:   ProviderName,
		Kind:       kind,
		StatusCode: status,
		Message:    body,
	}
}

// quoteResponse is the /quote payload. Finnhub signals an unknown
// symbol with an all-zero body rather than a 404.
type quoteResponse struct {
	Current   float64 `json:"c"`
	PrevClose float64 `json:"pc"`
	Timestamp int64   `json:"t"`
}

// GetQuote retrieves a live quote for one symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))

	var resp quoteResponse
	if err := c.get(ctx, "/quote", params, &resp); err != nil {
		return nil, err
	}

	if resp.Current == 0 && resp.PrevClose == 0 && resp.Timestamp == 0 {
		return nil, &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrNotFound,
			Message:  fmt.Sprintf("symbol %s not found", symbol),
		}
	}

	quote := &models.PriceQuote{
		Symbol:      strings.ToUpper(symbol),
		AsOf:        c.now(),
		Currency:    "USD",
		MarketState: models.MarketStateUnknown, // /quote carries no session info
	}
	if resp.Current != 0 {
		last := resp.Current
		quote.Last = &last
	}
	if resp.PrevClose != 0 {
		prev := resp.PrevClose
		quote.PrevClose = &prev
	}
	return quote, nil
}

// candleResponse is the /stock/candle payload
type candleResponse struct {
	Closes []float64 `json:"c"`
	Status string    `json:"s"`
}

// GetDailyCloses retrieves up to days recent daily closes, oldest first
func (c *Client) GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	to := c.now()
	from := to.AddDate(0, 0, -days*2) // pad for weekends/holidays

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("resolution", "D")
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	var resp candleResponse
	if err := c.get(ctx, "/stock/candle", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "no_data" || len(resp.Closes) == 0 {
		return nil, &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrNotFound,
			Message:  fmt.Sprintf("no candle data for %s", symbol),
		}
	}

	closes := resp.Closes
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}

// Ensure Client implements QuoteProvider
var _ interfaces.QuoteProvider = (*Client)(nil)
