package market

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

type fakePrices struct {
	bars map[string][]domain.PriceBar
}

func (f *fakePrices) PriceBars(ctx context.Context, symbol, period, interval string) ([]domain.PriceBar, error) {
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	return bars, nil
}

type fakeYields struct {
	yield float64
	err   error
}

func (f *fakeYields) TreasuryMonth1Yield(ctx context.Context) (float64, error) {
	return f.yield, f.err
}

func closesToBars(closes []float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

// trendSeries builds n bars moving from start by step per bar.
func trendSeries(n int, start, step float64) []domain.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closesToBars(closes)
}

func TestRegime(t *testing.T) {
	prices := &fakePrices{bars: map[string][]domain.PriceBar{
		"BULL":  trendSeries(252, 100, 0.5),  // above every moving average
		"BEAR":  trendSeries(252, 300, -0.5), // below every moving average
		"SHORT": trendSeries(100, 100, 0.5),  // not enough history
	}}

	svc := NewService(prices, &fakeYields{}, []string{"BULL", "BEAR", "SHORT", "MISSING"}, zerolog.Nop())

	regimes, err := svc.Regime(context.Background())
	require.NoError(t, err)
	require.Len(t, regimes, 2)

	assert.Equal(t, "BULL", regimes[0].Symbol)
	assert.Equal(t, Investable, regimes[0].Near)
	assert.Equal(t, Investable, regimes[0].Medium)
	assert.Equal(t, Investable, regimes[0].Long)

	assert.Equal(t, "BEAR", regimes[1].Symbol)
	assert.Equal(t, Avoid, regimes[1].Near)
	assert.Equal(t, Avoid, regimes[1].Medium)
	assert.Equal(t, Avoid, regimes[1].Long)
}

func TestRegimeAllIndexesUnavailable(t *testing.T) {
	svc := NewService(&fakePrices{}, &fakeYields{}, []string{"SPY"}, zerolog.Nop())
	_, err := svc.Regime(context.Background())
	assert.Error(t, err)
}

func TestDualMomentum(t *testing.T) {
	tests := []struct {
		name       string
		spyReturn  float64 // percent over 12 months
		veuReturn  float64
		riskFree   float64
		wantChoice string
	}{
		{
			name:       "domestic equities lead",
			spyReturn:  15,
			veuReturn:  8,
			riskFree:   5,
			wantChoice: "SPY",
		},
		{
			name:       "international equities lead",
			spyReturn:  10,
			veuReturn:  14,
			riskFree:   5,
			wantChoice: "VEU",
		},
		{
			name:       "cash beats equities",
			spyReturn:  3,
			veuReturn:  12,
			riskFree:   5,
			wantChoice: "AGG",
		},
		{
			name:       "flat equals risk free goes to bonds",
			spyReturn:  5,
			veuReturn:  2,
			riskFree:   5,
			wantChoice: "AGG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := &fakePrices{bars: map[string][]domain.PriceBar{
				"SPY": closesToBars([]float64{100, 100 + tt.spyReturn}),
				"VEU": closesToBars([]float64{100, 100 + tt.veuReturn}),
			}}
			svc := NewService(prices, &fakeYields{yield: tt.riskFree}, nil, zerolog.Nop())

			pick, err := svc.DualMomentum(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantChoice, pick.Choice)
			assert.InDelta(t, tt.spyReturn, pick.EquityReturn, 1e-9)
			assert.InDelta(t, tt.veuReturn, pick.InternationalReturn, 1e-9)
			assert.Equal(t, tt.riskFree, pick.RiskFreeReturn)
		})
	}
}

func TestDualMomentumYieldFailure(t *testing.T) {
	prices := &fakePrices{bars: map[string][]domain.PriceBar{
		"SPY": closesToBars([]float64{100, 110}),
		"VEU": closesToBars([]float64{100, 105}),
	}}
	svc := NewService(prices, &fakeYields{err: fmt.Errorf("provider down")}, nil, zerolog.Nop())

	_, err := svc.DualMomentum(context.Background())
	assert.Error(t, err)
}
