package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

// StatementProvider supplies financial statements. Implementations must
// return an empty slice (not an error) for symbols without data.
type StatementProvider interface {
	IncomeStatement(ctx context.Context, symbol, period string) ([]domain.IncomeStatement, error)
	BalanceSheet(ctx context.Context, symbol, period string) ([]domain.BalanceSheet, error)
}

// UniverseProvider supplies the tradable symbol universe.
type UniverseProvider interface {
	Universe(ctx context.Context, limit int) ([]domain.ScreenedStock, error)
}

// Service is the fundamental ranking engine: it turns multi-year statement
// data for a symbol universe into one sector-aware ranked table.
type Service struct {
	statements StatementProvider
	universe   UniverseProvider
	log        zerolog.Logger
}

// NewService creates a new ranking service
func NewService(statements StatementProvider, universe UniverseProvider, log zerolog.Logger) *Service {
	return &Service{
		statements: statements,
		universe:   universe,
		log:        log.With().Str("service", "ranking").Logger(),
	}
}

// Options control one ranking run.
type Options struct {
	UniverseLimit int
	Years         int
	Weights       Weights
}

// Run executes a full ranking pass: fetch the universe, derive per-symbol
// metrics one symbol at a time, then rank the collected batch. Per-symbol
// fetch failures skip that symbol's metrics (it ranks bottom), they never
// abort the batch. The output is sorted by final rank and is independent
// of input row order.
func (s *Service) Run(ctx context.Context, opts Options) ([]RankRecord, error) {
	if opts.Years <= 0 {
		opts.Years = 10
	}
	if opts.UniverseLimit <= 0 {
		opts.UniverseLimit = 1000
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}

	stocks, err := s.universe.Universe(ctx, opts.UniverseLimit)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("universe", len(stocks)).Int("years", opts.Years).Msg("Starting ranking run")

	currentYear := time.Now().Year()

	records := make([]RankRecord, 0, len(stocks))
	for _, stock := range stocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := RankRecord{
			Symbol:    stock.Symbol,
			Sector:    stock.Sector,
			MarketCap: stock.MarketCap,
			Price:     stock.Price,
		}

		yearly, err := s.symbolMetrics(ctx, stock.Symbol, opts.Years, currentYear)
		if err != nil {
			// Empty metrics record: absent from every rank
			// computation, ranked bottom by the undefined rule.
			s.log.Warn().Err(err).Str("symbol", stock.Symbol).Msg("Statement fetch failed, skipping metrics")
		} else {
			record.Yearly = yearly
			record.Growth = deriveGrowth(yearly)
		}

		records = append(records, record)
	}

	applyRanks(records, opts.Weights)

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinalRank < records[j].FinalRank
	})

	s.log.Info().Int("ranked", len(records)).Msg("Ranking run complete")
	return records, nil
}

// symbolMetrics fetches one symbol's statements and derives its yearly
// series.
func (s *Service) symbolMetrics(ctx context.Context, symbol string, years, currentYear int) ([]YearlyMetric, error) {
	quarterlyIncome, err := s.statements.IncomeStatement(ctx, symbol, "quarter")
	if err != nil {
		return nil, err
	}
	quarterlyBalance, err := s.statements.BalanceSheet(ctx, symbol, "quarter")
	if err != nil {
		return nil, err
	}
	if len(quarterlyIncome) == 0 || len(quarterlyBalance) == 0 {
		return nil, nil
	}

	annualIncome, err := s.statements.IncomeStatement(ctx, symbol, "annual")
	if err != nil {
		return nil, err
	}
	annualBalance, err := s.statements.BalanceSheet(ctx, symbol, "annual")
	if err != nil {
		return nil, err
	}

	return deriveYearlyMetrics(statementSet{
		QuarterlyIncome:  quarterlyIncome,
		QuarterlyBalance: quarterlyBalance,
		AnnualIncome:     annualIncome,
		AnnualBalance:    annualBalance,
	}, years, currentYear), nil
}
