package rebalancing

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/domain"
	"github.com/quantscope/equity-analyzer/pkg/formulas"
)

// PriceProvider supplies the historical window the variance scores are
// computed over.
type PriceProvider interface {
	PriceBars(ctx context.Context, symbol, period, interval string) ([]domain.PriceBar, error)
}

// Options control one rebalancing run.
type Options struct {
	// Exclude lists symbols frozen at their current weight. They count
	// toward total value but not toward the optimization.
	Exclude []string
	// NegativeWeight multiplies a day's range when the day closed down,
	// penalizing downside volatility harder than upside.
	NegativeWeight float64
	// Period is the provider range of the historical window.
	Period string
}

// Service is the portfolio rebalancer: it converts current holdings and
// historical volatility into volatility-inverse target weights and the cash
// deltas to reach them.
type Service struct {
	prices PriceProvider
	log    zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(prices PriceProvider, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "rebalancing").Logger(),
	}
}

// BuildPlan computes the allocation plan for the given holdings snapshot.
// Holdings are processed one at a time; a symbol whose history fetch fails
// or comes back empty is dropped from the optimization set, never fatal.
// Degenerate inputs (empty set, zero variance, zero percent spread) abort
// the plan with an explicit error.
func (s *Service) BuildPlan(ctx context.Context, holdings []domain.Holding, opts Options) (*Plan, error) {
	if opts.NegativeWeight <= 0 {
		opts.NegativeWeight = 10
	}
	if opts.Period == "" {
		opts.Period = "1mo"
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, symbol := range opts.Exclude {
		excluded[symbol] = true
	}

	var totalValue float64
	var optimizable []domain.Holding
	var frozen []string
	for _, h := range holdings {
		if h.SecurityType != "" && h.SecurityType != "Equity" {
			continue
		}
		totalValue += h.MarketValue
		if excluded[h.Symbol] {
			frozen = append(frozen, h.Symbol)
			continue
		}
		optimizable = append(optimizable, h)
	}

	if totalValue == 0 {
		return nil, fmt.Errorf("%w: portfolio has no value", ErrDegenerateInput)
	}
	if len(optimizable) == 0 {
		return nil, ErrEmptyOptimizationSet
	}

	// Variance scores, one symbol at a time. Failures shrink the set.
	type scored struct {
		holding  domain.Holding
		variance float64
	}
	var scores []scored
	for _, h := range optimizable {
		bars, err := s.prices.PriceBars(ctx, h.Symbol, opts.Period, "1d")
		if err != nil || len(bars) == 0 {
			s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("History fetch failed, dropping from optimization")
			continue
		}
		scores = append(scores, scored{
			holding:  h,
			variance: varianceScore(bars, opts.NegativeWeight),
		})
	}

	if len(scores) == 0 {
		return nil, ErrEmptyOptimizationSet
	}

	var totalVariance float64
	for _, sc := range scores {
		if sc.variance == 0 {
			return nil, fmt.Errorf("%w: %s has zero variance over the window", ErrDegenerateInput, sc.holding.Symbol)
		}
		totalVariance += sc.variance
	}
	if totalVariance == 0 {
		return nil, fmt.Errorf("%w: variance sum is zero", ErrDegenerateInput)
	}

	// Ideal weights are inversely proportional to each symbol's variance
	// share, rescaled so the optimizable bucket keeps its total weight.
	idealVariance := 1.0 / float64(len(scores))
	updateSizes := make([]float64, len(scores))
	var updateSum float64
	var optimizeTotalPct float64
	rows := make([]PlanRow, len(scores))
	for i, sc := range scores {
		rows[i] = PlanRow{
			Symbol:         sc.holding.Symbol,
			CurrentPercent: formulas.Round(sc.holding.MarketValue/totalValue*100, 0),
		}
		optimizeTotalPct += rows[i].CurrentPercent

		pctVariance := sc.variance / totalVariance
		updateSizes[i] = idealVariance / pctVariance
		updateSum += updateSizes[i]
	}

	for i := range rows {
		rows[i].IdealPercent = formulas.Round(updateSizes[i]/updateSum*optimizeTotalPct, 0)
		rows[i].CashChange = formulas.Round((rows[i].IdealPercent-rows[i].CurrentPercent)/100*totalValue, 0)
	}

	// Rounding leaves a residual; the last row absorbs it so the plan's
	// cash changes sum to zero exactly.
	var residual float64
	for _, row := range rows {
		residual += row.CashChange
	}
	lastRow := &rows[len(rows)-1]
	lastRow.CashChange -= residual
	lastRow.IdealPercent = formulas.Round(lastRow.CurrentPercent+lastRow.CashChange/totalValue*100, 0)

	currentStd := percentStd(rows, func(r PlanRow) float64 { return r.CurrentPercent })
	idealStd := percentStd(rows, func(r PlanRow) float64 { return r.IdealPercent })
	if currentStd == 0 || idealStd == 0 {
		return nil, fmt.Errorf("%w: percent columns have zero standard deviation", ErrDegenerateInput)
	}
	dispersion := ((1/idealStd)/(1/currentStd) - 1) * 100

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CashChange > rows[j].CashChange })

	s.log.Info().
		Int("rows", len(rows)).
		Float64("total_value", totalValue).
		Float64("dispersion_improvement", dispersion).
		Msg("Rebalancing plan built")

	return &Plan{
		Rows:                  rows,
		DispersionImprovement: dispersion,
		TotalValue:            totalValue,
		Excluded:              frozen,
	}, nil
}

// varianceScore is the mean weighted daily range over the window: a day's
// range (high-low)/open, multiplied by the negative weight when the day
// closed below its open.
func varianceScore(bars []domain.PriceBar, negativeWeight float64) float64 {
	weighted := make([]float64, 0, len(bars))
	for _, bar := range bars {
		if bar.Open == 0 {
			continue
		}
		dayRange := formulas.Round((bar.High-bar.Low)/bar.Open, 4)
		if bar.Close-bar.Open < 0 {
			dayRange *= negativeWeight
		}
		weighted = append(weighted, dayRange)
	}
	return formulas.Mean(weighted)
}

func percentStd(rows []PlanRow, pick func(PlanRow) float64) float64 {
	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = pick(row)
	}
	return formulas.StdDev(values)
}
