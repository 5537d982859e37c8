package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/database"
	"github.com/quantscope/equity-analyzer/internal/domain"
)

// Source is the upstream price-history provider the cache reads through to.
type Source interface {
	PriceBars(ctx context.Context, symbol, period, interval string) ([]domain.PriceBar, error)
}

// Cache is a read-through daily-price cache over the price provider.
// Engines consume identical []PriceBar series whether a lookup hits the
// local database or falls through to the provider.
type Cache struct {
	db     *database.DB
	source Source
	maxAge time.Duration
	log    zerolog.Logger
}

// NewCache creates a price history cache backed by the given database.
func NewCache(db *database.DB, source Source, log zerolog.Logger) (*Cache, error) {
	c := &Cache{
		db:     db,
		source: source,
		maxAge: 24 * time.Hour,
		log:    log.With().Str("component", "history_cache").Logger(),
	}
	if err := c.initSchema(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol      TEXT NOT NULL,
			date        TEXT NOT NULL,
			open_price  REAL NOT NULL,
			high_price  REAL NOT NULL,
			low_price   REAL NOT NULL,
			close_price REAL NOT NULL,
			volume      REAL NOT NULL,
			fetched_at  TEXT NOT NULL,
			PRIMARY KEY (symbol, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}
	return nil
}

// PriceBars returns the cached series when it is fresh and covers the
// requested range, otherwise refetches from the provider and stores the
// result. Interval is always daily; period uses the provider's range syntax.
func (c *Cache) PriceBars(ctx context.Context, symbol, period, interval string) ([]domain.PriceBar, error) {
	want := periodBars(period)

	cached, fetchedAt, err := c.load(symbol, want)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache read failed, falling through")
	} else if len(cached) >= want && time.Since(fetchedAt) < c.maxAge {
		return cached, nil
	}

	bars, err := c.source.PriceBars(ctx, symbol, period, interval)
	if err != nil {
		// A stale cache still beats no data when the provider is down.
		if len(cached) > 0 {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider failed, serving stale cache")
			return cached, nil
		}
		return nil, err
	}

	if err := c.store(symbol, bars); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache write failed")
	}

	return bars, nil
}

func (c *Cache) load(symbol string, limit int) ([]domain.PriceBar, time.Time, error) {
	rows, err := c.db.Query(`
		SELECT date, open_price, high_price, low_price, close_price, volume, fetched_at
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var bars []domain.PriceBar
	var newestFetch time.Time
	for rows.Next() {
		var dateStr, fetchedStr string
		var bar domain.PriceBar
		if err := rows.Scan(&dateStr, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &fetchedStr); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan daily price: %w", err)
		}
		if bar.Date, err = time.Parse("2006-01-02", dateStr); err != nil {
			return nil, time.Time{}, fmt.Errorf("bad date in cache: %w", err)
		}
		if fetched, err := time.Parse(time.RFC3339, fetchedStr); err == nil && fetched.After(newestFetch) {
			newestFetch = fetched
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	// Rows came newest-first; engines want chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, newestFetch, nil
}

func (c *Cache) store(symbol string, bars []domain.PriceBar) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, open_price, high_price, low_price, close_price, volume, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, bar := range bars {
		if _, err := stmt.Exec(
			symbol,
			bar.Date.Format("2006-01-02"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
			now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// periodBars maps a provider range to the trading-day count it should cover.
func periodBars(period string) int {
	switch period {
	case "1mo":
		return 21
	case "3mo":
		return 63
	case "6mo":
		return 126
	case "1y":
		return 252
	case "2y":
		return 504
	default:
		return 126
	}
}
