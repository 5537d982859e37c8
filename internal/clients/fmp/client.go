package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

// Client is a Financial Modeling Prep API client. All requests share one
// token-bucket limiter, so batch loops (and any future concurrent callers)
// draw from the same provider budget. Rate-limit responses get a bounded
// fixed-backoff retry; everything else fails fast behind a circuit breaker.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	retries int
	backoff time.Duration
	log     zerolog.Logger
}

// Config holds FMP client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	// RequestsPerSecond is the shared provider budget. Defaults to 4
	// (the free tier allows ~250ms between calls).
	RequestsPerSecond float64
	// Retries is the bounded retry count on rate-limit signatures.
	Retries int
	// Backoff is the fixed sleep between rate-limit retries.
	Backoff time.Duration
	Timeout time.Duration
}

// NewClient creates a new FMP client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 10
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name: "fmp",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Throttling belongs to the bounded retry loop, not the breaker:
		// counting 429s as failures would open the circuit mid-backoff
		// and turn a rate-limit wait into a batch-wide outage.
		IsSuccessful: func(err error) bool {
			return err == nil || isRateLimited(err)
		},
		Timeout: time.Minute,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
		retries: cfg.Retries,
		backoff: cfg.Backoff,
		log:     log.With().Str("client", "fmp").Logger(),
	}
}

// Universe fetches the tradable symbol universe from the stock screener.
// Symbols with exchange suffixes or share-class separators are dropped.
func (c *Client) Universe(ctx context.Context, limit int) ([]domain.ScreenedStock, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("country", "US")
	params.Set("exchange", "NYSE,NASDAQ")
	params.Set("isEtf", "false")
	params.Set("isActivelyTrading", "true")

	var rows []domain.ScreenedStock
	if err := c.getJSON(ctx, "/stock-screener", params, &rows); err != nil {
		return nil, err
	}

	filtered := rows[:0]
	for _, row := range rows {
		if strings.ContainsAny(row.Symbol, ".:") {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered, nil
}

// Screen runs the stock screener with caller-supplied filter parameters and
// returns the matching symbols.
func (c *Client) Screen(ctx context.Context, filters map[string]string) ([]string, error) {
	params := url.Values{}
	for key, value := range filters {
		params.Set(key, value)
	}

	var rows []domain.ScreenedStock
	if err := c.getJSON(ctx, "/stock-screener", params, &rows); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		if strings.ContainsAny(row.Symbol, ".:") {
			continue
		}
		symbols = append(symbols, row.Symbol)
	}
	return symbols, nil
}

// IncomeStatement fetches income statements for a symbol, most recent first.
// Period is "annual" or "quarter". An unlisted symbol yields an empty slice.
func (c *Client) IncomeStatement(ctx context.Context, symbol, period string) ([]domain.IncomeStatement, error) {
	params := url.Values{}
	params.Set("period", period)

	var rows []domain.IncomeStatement
	if err := c.getJSON(ctx, "/income-statement/"+url.PathEscape(symbol), params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// BalanceSheet fetches balance sheets for a symbol, most recent first.
func (c *Client) BalanceSheet(ctx context.Context, symbol, period string) ([]domain.BalanceSheet, error) {
	params := url.Values{}
	params.Set("period", period)

	var rows []domain.BalanceSheet
	if err := c.getJSON(ctx, "/balance-sheet-statement/"+url.PathEscape(symbol), params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Quote fetches the current price for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	var rows []quoteRow
	if err := c.getJSON(ctx, "/quote/"+url.PathEscape(symbol), url.Values{}, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no quote returned for %s", symbol)
	}
	return rows[0].Price, nil
}

// TreasuryMonth1Yield fetches the current 1-month Treasury Bill yield,
// used as the risk-free rate by the dual-momentum check.
func (c *Client) TreasuryMonth1Yield(ctx context.Context) (float64, error) {
	var rows []treasuryRow
	if err := c.getJSONAbs(ctx, strings.Replace(c.baseURL, "/api/v3", "/api/v4", 1)+"/treasury", url.Values{}, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no treasury data returned")
	}
	return float64(rows[0].Month1), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.getJSONAbs(ctx, c.baseURL+path, params, out)
}

// getJSONAbs performs one rate-limited GET with bounded retry on rate-limit
// signatures. Each attempt waits on the shared token bucket, so retries are
// re-submissions to the limiter rather than bare sleeps.
func (c *Client) getJSONAbs(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	params.Set("apikey", c.apiKey)
	fullURL := rawURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.fetch(ctx, fullURL)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		if !isRateLimited(err) {
			return err
		}

		lastErr = err
		c.log.Warn().
			Int("attempt", attempt+1).
			Int("retries", c.retries).
			Dur("backoff", c.backoff).
			Msg("Rate limit hit, backing off")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}

	return fmt.Errorf("rate-limit retries exhausted: %w", lastErr)
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &rateLimitError{status: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
		}

		// FMP reports plan-level throttling inside a 200 response.
		if strings.Contains(string(body), "Too many requests") {
			return nil, &rateLimitError{status: resp.StatusCode}
		}

		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

type rateLimitError struct {
	status int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d)", e.status)
}

func isRateLimited(err error) bool {
	var rl *rateLimitError
	return errors.As(err, &rl)
}
