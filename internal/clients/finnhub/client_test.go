package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idoh90/portfoliohub/internal/models"
)

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		w.Write([]byte(`{"c":189.5,"pc":188.0,"t":1700000000}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	quote, err := client.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	require.NotNil(t, quote.Last)
	assert.Equal(t, 189.5, *quote.Last)
	require.NotNil(t, quote.PrevClose)
	assert.Equal(t, 188.0, *quote.PrevClose)
	assert.Equal(t, models.MarketStateUnknown, quote.MarketState)
	assert.False(t, quote.AsOf.IsZero())
}

func TestGetQuote_AllZeroBodyIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"pc":0,"t":0}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.GetQuote(context.Background(), "NOPE")

	var perr *models.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, models.ProviderErrNotFound, perr.Kind)
}

func TestGetQuote_MissingAPIKey(t *testing.T) {
	client := NewClient("")
	_, err := client.GetQuote(context.Background(), "AAPL")

	var perr *models.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, models.ProviderErrInvalidKey, perr.Kind)
}

func TestGetQuote_UnauthorizedClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := client.GetQuote(context.Background(), "AAPL")

	var perr *models.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, models.ProviderErrInvalidKey, perr.Kind)
}

func TestGetDailyCloses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		w.Write([]byte(`{"c":[100.0,101.0,102.0,103.0],"s":"ok"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	closes, err := client.GetDailyCloses(context.Background(), "AAPL", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{101.0, 102.0, 103.0}, closes)
}

func TestGetDailyCloses_NoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.GetDailyCloses(context.Background(), "AAPL", 30)

	var perr *models.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, models.ProviderErrNotFound, perr.Kind)
}
