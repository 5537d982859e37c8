package ranking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

type fakeUniverse struct {
	stocks []domain.ScreenedStock
}

func (f *fakeUniverse) Universe(ctx context.Context, limit int) ([]domain.ScreenedStock, error) {
	if limit < len(f.stocks) {
		return f.stocks[:limit], nil
	}
	return f.stocks, nil
}

// fakeStatements serves canned statements per symbol and fails the symbols
// listed in failing.
type fakeStatements struct {
	income  map[string][]domain.IncomeStatement
	balance map[string][]domain.BalanceSheet
	failing map[string]bool
}

func (f *fakeStatements) IncomeStatement(ctx context.Context, symbol, period string) ([]domain.IncomeStatement, error) {
	if f.failing[symbol] {
		return nil, fmt.Errorf("provider unavailable for %s", symbol)
	}
	return f.income[symbol+"/"+period], nil
}

func (f *fakeStatements) BalanceSheet(ctx context.Context, symbol, period string) ([]domain.BalanceSheet, error) {
	if f.failing[symbol] {
		return nil, fmt.Errorf("provider unavailable for %s", symbol)
	}
	return f.balance[symbol+"/"+period], nil
}

// statementsFor builds a quarterly+annual statement fixture whose TTM
// revenue grows by the given rate against the latest annual year.
func statementsFor(f *fakeStatements, symbol string, ebit, revenue float64) {
	lastYear := time.Now().Year() - 1
	date := func(year int) string { return fmt.Sprintf("%d-12-31", year) }

	f.income[symbol+"/annual"] = []domain.IncomeStatement{
		{Date: date(lastYear), Revenue: revenue, OperatingIncome: ebit},
		{Date: date(lastYear - 1), Revenue: revenue * 0.9, OperatingIncome: ebit * 0.9},
	}
	f.balance[symbol+"/annual"] = []domain.BalanceSheet{
		{Date: date(lastYear), TotalAssets: revenue * 2, TotalCurrentLiab: revenue / 2},
		{Date: date(lastYear - 1), TotalAssets: revenue * 2, TotalCurrentLiab: revenue / 2},
	}
	f.income[symbol+"/quarter"] = []domain.IncomeStatement{
		{Date: date(lastYear), Revenue: revenue / 4, OperatingIncome: ebit / 4},
		{Date: date(lastYear), Revenue: revenue / 4, OperatingIncome: ebit / 4},
		{Date: date(lastYear), Revenue: revenue / 4, OperatingIncome: ebit / 4},
		{Date: date(lastYear), Revenue: revenue / 4, OperatingIncome: ebit / 4},
	}
	f.balance[symbol+"/quarter"] = []domain.BalanceSheet{
		{Date: date(lastYear), TotalAssets: revenue * 2, TotalCurrentLiab: revenue / 2},
	}
}

func TestServiceRun(t *testing.T) {
	stmts := &fakeStatements{
		income:  map[string][]domain.IncomeStatement{},
		balance: map[string][]domain.BalanceSheet{},
		failing: map[string]bool{"BROKEN": true},
	}
	// GOOD is far more profitable than WEAK; BROKEN's provider errors out.
	statementsFor(stmts, "GOOD", 400, 1000)
	statementsFor(stmts, "WEAK", 50, 1000)

	universe := &fakeUniverse{stocks: []domain.ScreenedStock{
		{Symbol: "WEAK", Sector: "Industrials", MarketCap: 5e9, Price: 20},
		{Symbol: "BROKEN", Sector: "Industrials", MarketCap: 4e9, Price: 15},
		{Symbol: "GOOD", Sector: "Industrials", MarketCap: 6e9, Price: 30},
	}}

	svc := NewService(stmts, universe, zerolog.Nop())
	records, err := svc.Run(context.Background(), Options{UniverseLimit: 10, Years: 5})
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Output is sorted best-first and a failing provider never aborts
	// the batch, it just ranks that symbol at the bottom.
	assert.Equal(t, "GOOD", records[0].Symbol)
	assert.Equal(t, 1.0, records[0].FinalRank)
	assert.Equal(t, "WEAK", records[1].Symbol)
	assert.Equal(t, "BROKEN", records[2].Symbol)
	assert.Empty(t, records[2].Yearly)
}

func TestServiceRunUniverseError(t *testing.T) {
	svc := NewService(&fakeStatements{}, &failingUniverse{}, zerolog.Nop())
	_, err := svc.Run(context.Background(), Options{})
	assert.Error(t, err)
}

type failingUniverse struct{}

func (f *failingUniverse) Universe(ctx context.Context, limit int) ([]domain.ScreenedStock, error) {
	return nil, fmt.Errorf("screener down")
}

func TestServiceRunCancelled(t *testing.T) {
	stmts := &fakeStatements{
		income:  map[string][]domain.IncomeStatement{},
		balance: map[string][]domain.BalanceSheet{},
	}
	statementsFor(stmts, "AAA", 100, 500)

	universe := &fakeUniverse{stocks: []domain.ScreenedStock{{Symbol: "AAA"}}}
	svc := NewService(stmts, universe, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
