package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/config"
	"github.com/quantscope/equity-analyzer/internal/domain"
	"github.com/quantscope/equity-analyzer/internal/modules/ranking"
	"github.com/quantscope/equity-analyzer/internal/modules/trend"
)

// Screener narrows the candidate universe with a filtered screen.
type Screener interface {
	Screen(ctx context.Context, filters map[string]string) ([]string, error)
}

// PriceProvider supplies the OHLCV history for trend confirmation.
type PriceProvider interface {
	PriceBars(ctx context.Context, symbol, period, interval string) ([]domain.PriceBar, error)
}

// Quoter supplies the current price recorded on each pick.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (float64, error)
}

// Baseline loads the saved ranking table the selection starts from.
type Baseline interface {
	Load() ([]ranking.RankRecord, error)
}

// Service intersects the fundamental ranking baseline with the screener's
// universe and the trend detector's verdict to produce final long and short
// candidate lists.
type Service struct {
	baseline Baseline
	screener Screener
	prices   PriceProvider
	quoter   Quoter
	detector *trend.Detector
	filters  config.StockFilters
	period   string
	log      zerolog.Logger
}

// NewService creates a new selection service
func NewService(
	baseline Baseline,
	screener Screener,
	prices PriceProvider,
	quoter Quoter,
	detector *trend.Detector,
	filters config.StockFilters,
	period string,
	log zerolog.Logger,
) *Service {
	return &Service{
		baseline: baseline,
		screener: screener,
		prices:   prices,
		quoter:   quoter,
		detector: detector,
		filters:  filters,
		period:   period,
		log:      log.With().Str("service", "selection").Logger(),
	}
}

// Select produces the candidate list for one side. Long picks need
// final_rank at or under the cutoff and an up trend; short picks mirror
// with final_rank at or above the cutoff and a down trend. Symbols whose
// trend check errors are skipped, never fatal.
func (s *Service) Select(ctx context.Context, side Side) ([]Candidate, error) {
	records, err := s.baseline.Load()
	if err != nil {
		return nil, fmt.Errorf("no ranking baseline: %w", err)
	}

	filter := s.filters.Long
	direction := trend.Up
	if side == Short {
		filter = s.filters.Short
		direction = trend.Down
	}

	screened, err := s.screener.Screen(ctx, filter.Screen)
	if err != nil {
		return nil, fmt.Errorf("screener failed: %w", err)
	}
	inScreen := make(map[string]bool, len(screened))
	for _, symbol := range screened {
		inScreen[symbol] = true
	}

	var shortlist []ranking.RankRecord
	for _, rec := range records {
		if !inScreen[rec.Symbol] {
			continue
		}
		if side == Long && rec.FinalRank <= filter.RankCondition {
			shortlist = append(shortlist, rec)
		}
		if side == Short && rec.FinalRank >= filter.RankCondition {
			shortlist = append(shortlist, rec)
		}
	}

	today := time.Now().Format("2006_01_02")
	var candidates []Candidate
	for _, rec := range shortlist {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := s.prices.PriceBars(ctx, rec.Symbol, s.period, "1d")
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", rec.Symbol).Msg("Price history failed, skipping candidate")
			continue
		}

		signal, err := s.detector.Detect(bars, direction)
		if err != nil || signal == nil {
			continue
		}

		price, err := s.quoter.Quote(ctx, rec.Symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", rec.Symbol).Msg("Quote failed, recording zero pick price")
		}

		candidates = append(candidates, Candidate{
			Date:                     today,
			Symbol:                   rec.Symbol,
			PositionType:             string(side),
			PricePicked:              price,
			FinalRank:                rec.FinalRank,
			ROCEGrowthRank:           rec.ROCEGrowthRank,
			ROCECurrentYearRank:      rec.ROCECurrentYearRank,
			OperatingMarginGrowth:    rec.OperatingMarginGrowthRank,
			OperatingMarginLevelRank: rec.OperatingMarginCurrentYearRank,
			RevenueGrowthRank:        rec.RevenueGrowthCurrentYearRank,
			TrendType:                string(direction),
			TrendStrength:            signal.TotalScore,
			SignalType:               signal.SignalType,
			Confidence:               signal.Confidence,
			ContributingFactors:      formatFactors(signal.ContributingFactors),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalRank < candidates[j].FinalRank
	})

	s.log.Info().
		Str("side", string(side)).
		Int("shortlist", len(shortlist)).
		Int("selected", len(candidates)).
		Msg("Position selection complete")

	return candidates, nil
}

// formatFactors renders the contributing sub-scores in a stable order for
// the CSV artifact.
func formatFactors(factors map[string]float64) string {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%.2f", name, factors[name])
	}
	return out
}
