package fmp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
		Retries:           3,
		Backoff:           time.Millisecond,
	}, zerolog.Nop())
}

func TestUniverseFiltersSuffixedSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock-screener", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "false", r.URL.Query().Get("isEtf"))

		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"symbol": "AAPL", "sector": "Technology", "marketCap": 2.7e12, "price": 185.0},
			{"symbol": "BRK.B", "sector": "Financials", "marketCap": 7.0e11, "price": 400.0},
			{"symbol": "RY:CA", "sector": "Financials", "marketCap": 1.0e11, "price": 100.0},
			{"symbol": "XOM", "sector": "Energy", "marketCap": 4.0e11, "price": 110.0},
		})
	}))
	defer srv.Close()

	stocks, err := testClient(srv.URL).Universe(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, stocks, 2)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
	assert.Equal(t, "XOM", stocks[1].Symbol)
	assert.Equal(t, "Technology", stocks[0].Sector)
}

func TestIncomeStatement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/income-statement/AAPL", r.URL.Path)
		assert.Equal(t, "annual", r.URL.Query().Get("period"))

		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2023-09-30", "revenue": 383285000000.0, "operatingIncome": 114301000000.0},
			{"date": "2022-09-24", "revenue": 394328000000.0, "operatingIncome": 119437000000.0},
		})
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).IncomeStatement(context.Background(), "AAPL", "annual")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2023-09-30", rows[0].Date)
	assert.Equal(t, 383285000000.0, rows[0].Revenue)
	assert.Equal(t, 114301000000.0, rows[0].OperatingIncome)
}

func TestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"symbol": "AAPL", "price": 185.25},
		})
	}))
	defer srv.Close()

	price, err := testClient(srv.URL).Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 185.25, price)
}

func TestQuoteEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Quote(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestRetryOn429(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{{"symbol": "AAPL", "price": 185.25}})
	}))
	defer srv.Close()

	price, err := testClient(srv.URL).Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 185.25, price)
	assert.Equal(t, 3, hits)
}

func TestRetryOnThrottleBody(t *testing.T) {
	// FMP reports plan-level throttling inside an HTTP 200.
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			_, _ = w.Write([]byte(`{"Error": "Too many requests"}`))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{{"symbol": "AAPL", "price": 185.25}})
	}))
	defer srv.Close()

	price, err := testClient(srv.URL).Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 185.25, price)
	assert.Equal(t, 2, hits)
}

func TestRetriesExhausted(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Quote(context.Background(), "AAPL")
	assert.Error(t, err)
	assert.Equal(t, 3, hits)
}

func TestSustainedThrottleUsesFullRetryBudget(t *testing.T) {
	// A throttle streak longer than the breaker's trip threshold must not
	// open the circuit: every configured retry reaches the provider, the
	// error keeps its rate-limit identity, and the next call still goes out.
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits <= 10 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{{"symbol": "AAPL", "price": 185.25}})
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
		Retries:           10,
		Backoff:           time.Millisecond,
	}, zerolog.Nop())

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, 10, hits)
	assert.True(t, isRateLimited(err), "expected a rate-limit error, got: %v", err)

	// The throttle eased; the circuit must still be closed.
	price, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 185.25, price)
	assert.Equal(t, 11, hits)
}

func TestNonRateLimitErrorFailsFast(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Quote(context.Background(), "AAPL")
	assert.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestTreasuryMonth1Yield(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The v3 base is rewritten to v4 for the treasury endpoint, and
		// the API serves this field quoted.
		assert.Equal(t, "/api/v4/treasury", r.URL.Path)
		_, _ = w.Write([]byte(`[{"date": "2024-06-14", "month1": "5.32"}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:           srv.URL + "/api/v3",
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
	}, zerolog.Nop())

	yield, err := client.TreasuryMonth1Yield(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.32, yield)
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`"5.32"`, 5.32},
		{`5.32`, 5.32},
		{`null`, 0},
		{`""`, 0},
	}

	for _, tt := range tests {
		var f flexFloat
		require.NoError(t, json.Unmarshal([]byte(tt.input), &f), tt.input)
		assert.Equal(t, tt.want, float64(f), tt.input)
	}
}
