package market

import (
	"context"
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

// Verdict classifies one index horizon.
const (
	Investable = "Investable"
	Avoid      = "Avoid"
)

// IndexRegime is one index's verdict across the three horizons.
type IndexRegime struct {
	Symbol string `json:"symbol"`
	Near   string `json:"near"`   // ~1 month, vs SMA20
	Medium string `json:"medium"` // ~3 months, vs SMA50
	Long   string `json:"long"`   // ~1 year, vs SMA200
}

// MomentumPick is the dual-momentum decision.
type MomentumPick struct {
	Choice              string  `json:"choice"` // SPY, VEU or AGG
	EquityReturn        float64 `json:"equity_return"`         // 12-month SPY return, percent
	InternationalReturn float64 `json:"international_return"`  // 12-month VEU return, percent
	RiskFreeReturn      float64 `json:"risk_free_return"`      // 1-month T-bill yield, percent
}

// PriceProvider supplies index price history.
type PriceProvider interface {
	PriceBars(ctx context.Context, symbol, period, interval string) ([]domain.PriceBar, error)
}

// YieldProvider supplies the risk-free rate.
type YieldProvider interface {
	TreasuryMonth1Yield(ctx context.Context) (float64, error)
}

// Service answers two market-level questions: is each major index above its
// moving averages (regime check), and does 12-month equity momentum beat
// the risk-free rate (dual momentum).
type Service struct {
	prices  PriceProvider
	yields  YieldProvider
	indexes []string
	log     zerolog.Logger
}

// NewService creates a new market service
func NewService(prices PriceProvider, yields YieldProvider, indexes []string, log zerolog.Logger) *Service {
	return &Service{
		prices:  prices,
		yields:  yields,
		indexes: indexes,
		log:     log.With().Str("service", "market").Logger(),
	}
}

// Regime classifies each configured index across the three horizons.
// An index whose history fetch fails is skipped.
func (s *Service) Regime(ctx context.Context) ([]IndexRegime, error) {
	regimes := make([]IndexRegime, 0, len(s.indexes))
	for _, symbol := range s.indexes {
		bars, err := s.prices.PriceBars(ctx, symbol, "1y", "1d")
		if err != nil || len(bars) < 200 {
			s.log.Warn().Err(err).Str("symbol", symbol).Int("bars", len(bars)).Msg("Skipping index, not enough history")
			continue
		}

		closes := make([]float64, len(bars))
		for i, bar := range bars {
			closes[i] = bar.Close
		}
		price := closes[len(closes)-1]

		regimes = append(regimes, IndexRegime{
			Symbol: symbol,
			Near:   verdict(price, lastOf(talib.Sma(closes, 20))),
			Medium: verdict(price, lastOf(talib.Sma(closes, 50))),
			Long:   verdict(price, lastOf(talib.Sma(closes, 200))),
		})
	}

	if len(regimes) == 0 {
		return nil, fmt.Errorf("no index history available")
	}
	return regimes, nil
}

// DualMomentum compares 12-month SPY and VEU returns against the 1-month
// T-bill yield: equities only when they beat the risk-free rate, otherwise
// bonds.
func (s *Service) DualMomentum(ctx context.Context) (*MomentumPick, error) {
	equityReturn, err := s.twelveMonthReturn(ctx, "SPY")
	if err != nil {
		return nil, err
	}
	intlReturn, err := s.twelveMonthReturn(ctx, "VEU")
	if err != nil {
		return nil, err
	}
	riskFree, err := s.yields.TreasuryMonth1Yield(ctx)
	if err != nil {
		return nil, err
	}

	pick := &MomentumPick{
		EquityReturn:        equityReturn,
		InternationalReturn: intlReturn,
		RiskFreeReturn:      riskFree,
	}

	switch {
	case equityReturn-riskFree <= 0:
		pick.Choice = "AGG"
	case equityReturn > intlReturn:
		pick.Choice = "SPY"
	default:
		pick.Choice = "VEU"
	}

	s.log.Info().
		Str("choice", pick.Choice).
		Float64("equity", equityReturn).
		Float64("international", intlReturn).
		Float64("risk_free", riskFree).
		Msg("Dual momentum decision")

	return pick, nil
}

func (s *Service) twelveMonthReturn(ctx context.Context, symbol string) (float64, error) {
	bars, err := s.prices.PriceBars(ctx, symbol, "1y", "1d")
	if err != nil {
		return 0, err
	}
	if len(bars) < 2 {
		return 0, fmt.Errorf("not enough history for %s", symbol)
	}

	oldest := bars[0].Close
	newest := bars[len(bars)-1].Close
	if oldest == 0 {
		return 0, fmt.Errorf("zero starting price for %s", symbol)
	}
	return (newest - oldest) / oldest * 100, nil
}

func verdict(price, sma float64) string {
	if price > sma {
		return Investable
	}
	return Avoid
}

func lastOf(s []float64) float64 {
	return s[len(s)-1]
}
