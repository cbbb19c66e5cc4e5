// Package yahoo provides a quote client for the Yahoo Finance public API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/idoh90/portfoliohub/internal/common"
	"github.com/idoh90/portfoliohub/internal/interfaces"
	"github.com/idoh90/portfoliohub/internal/models"
)

const (
	ProviderName     = "yahoo"
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the BatchQuoteProvider interface against Yahoo's
// v7 quote and v8 chart endpoints.
type Client struct {
	baseURL    string
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

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Yahoo rejects requests without a browser-like agent.
	req.Header.Set("User-Agent", "Mozilla/5.0")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

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

// quoteResponse is the v7 quote endpoint envelope
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreviousClose      *float64 `json:"regularMarketPreviousClose"`
	MarketState        string   `json:"marketState"`
	Currency           string   `json:"currency"`
}

func mapMarketState(state string) models.MarketState {
	switch strings.ToUpper(state) {
	case "REGULAR":
		return models.MarketStateOpen
	case "CLOSED":
		return models.MarketStateClosed
	case "PRE", "PREPRE":
		return models.MarketStatePre
	case "POST", "POSTPOST":
		return models.MarketStatePost
	default:
		return models.MarketStateUnknown
	}
}

func (c *Client) toQuote(r quoteResult) *models.PriceQuote {
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	return &models.PriceQuote{
		Symbol:      strings.ToUpper(r.Symbol),
		Last:        r.RegularMarketPrice,
		PrevClose:   r.PreviousClose,
		AsOf:        c.now(),
		Currency:    currency,
		MarketState: mapMarketState(r.MarketState),
	}
}

// GetQuote retrieves a live quote for one symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	quotes, err := c.GetQuoteBatch(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	quote, ok := quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrNotFound,
			Message:  fmt.Sprintf("symbol %s not found", symbol),
		}
	}
	return quote, nil
}

// GetQuoteBatch retrieves quotes for several symbols in one call.
// Symbols the endpoint didn't return are absent from the map.
func (c *Client) GetQuoteBatch(ctx context.Context, symbols []string) (map[string]*models.PriceQuote, error) {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var resp quoteResponse
	if err := c.get(ctx, "/v7/finance/quote", params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteResponse.Error != nil {
		return nil, &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrHTTP,
			Message:  resp.QuoteResponse.Error.Description,
		}
	}

	quotes := make(map[string]*models.PriceQuote, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		quotes[strings.ToUpper(r.Symbol)] = c.toQuote(r)
	}
	return quotes, nil
}

// chartResponse is the v8 chart endpoint envelope
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chartRange picks the smallest Yahoo range covering days of dailies.
func chartRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// GetDailyCloses retrieves up to days recent daily closes, oldest first.
// Null bars (holidays) are skipped.
func (c *Client) GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", chartRange(days))

	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))

	var resp chartResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrNotFound,
			Message:  resp.Chart.Error.Description,
		}
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &models.ProviderError{
			Provider: ProviderName,
			Kind:     models.ProviderErrNotFound,
			Message:  "no chart data returned",
		}
	}

	raw := resp.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		closes = append(closes, *v)
	}
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}

// Ensure Client implements BatchQuoteProvider
var _ interfaces.BatchQuoteProvider = (*Client)(nil)
