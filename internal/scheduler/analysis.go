package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/config"
	"github.com/quantscope/equity-analyzer/internal/modules/market"
	"github.com/quantscope/equity-analyzer/internal/modules/ranking"
	"github.com/quantscope/equity-analyzer/internal/modules/reports"
	"github.com/quantscope/equity-analyzer/internal/modules/selection"
)

// AnalysisJob runs the full daily pipeline: refresh the fundamental
// ranking, select long and short candidates, check the market regime and
// save the combined report.
type AnalysisJob struct {
	log       zerolog.Logger
	strategy  *config.Strategy
	ranking   *ranking.Service
	rankRepo  *ranking.Repository
	selection *selection.Service
	selRepo   *selection.Repository
	market    *market.Service
	reports   *reports.Formatter
	timeout   time.Duration
}

// AnalysisConfig holds the analysis job dependencies.
type AnalysisConfig struct {
	Log       zerolog.Logger
	Strategy  *config.Strategy
	Ranking   *ranking.Service
	RankRepo  *ranking.Repository
	Selection *selection.Service
	SelRepo   *selection.Repository
	Market    *market.Service
	Reports   *reports.Formatter
}

// NewAnalysisJob creates the daily analysis job.
func NewAnalysisJob(cfg AnalysisConfig) *AnalysisJob {
	return &AnalysisJob{
		log:       cfg.Log.With().Str("job", "daily_analysis").Logger(),
		strategy:  cfg.Strategy,
		ranking:   cfg.Ranking,
		rankRepo:  cfg.RankRepo,
		selection: cfg.Selection,
		selRepo:   cfg.SelRepo,
		market:    cfg.Market,
		reports:   cfg.Reports,
		timeout:   4 * time.Hour,
	}
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "daily_analysis"
}

// Run executes the daily analysis pipeline. The ranking refresh is
// critical; candidate selection failures on one side leave that side
// empty but still produce a report.
func (j *AnalysisJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.log.Info().Msg("Starting daily analysis")
	start := time.Now()

	records, err := j.ranking.Run(ctx, ranking.Options{
		UniverseLimit: j.strategy.Ranking.UniverseLimit,
		Years:         j.strategy.Ranking.Years,
		Weights:       rankingWeights(j.strategy.Ranking.Weights),
	})
	if err != nil {
		return fmt.Errorf("ranking run failed: %w", err)
	}
	if err := j.rankRepo.Save(records); err != nil {
		return fmt.Errorf("failed to save scores: %w", err)
	}

	long := j.selectSide(ctx, selection.Long, j.strategy.Paths.InvestingStocks)
	short := j.selectSide(ctx, selection.Short, j.strategy.Paths.ShortStocks)

	regimes, err := j.market.Regime(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("Market regime unavailable")
	}

	body := j.reports.StockAnalysis(long, short, regimes)
	if err := j.reports.Save("stock_analysis", body); err != nil {
		return err
	}

	j.log.Info().
		Int("ranked", len(records)).
		Int("long", len(long)).
		Int("short", len(short)).
		Dur("duration", time.Since(start)).
		Msg("Daily analysis completed")

	return nil
}

// selectSide picks one side's candidates and saves them. Failures on one
// side never abort the run.
func (j *AnalysisJob) selectSide(ctx context.Context, side selection.Side, path string) []selection.Candidate {
	candidates, err := j.selection.Select(ctx, side)
	if err != nil {
		j.log.Error().Err(err).Str("side", string(side)).Msg("Candidate selection failed")
		return nil
	}
	if err := j.selRepo.Save(path, candidates); err != nil {
		j.log.Error().Err(err).Str("side", string(side)).Msg("Failed to save candidates")
	}
	return candidates
}

func rankingWeights(w config.RankingWeights) ranking.Weights {
	return ranking.Weights{
		ROCEGrowth:                 w.ROCEGrowth,
		ROCECurrentYear:            w.ROCECurrentYear,
		OperatingMarginGrowth:      w.OperatingMarginGrowth,
		OperatingMarginCurrentYear: w.OperatingMarginLevel,
		RevenueGrowthCurrentYear:   w.RevenueGrowth,
	}
}
