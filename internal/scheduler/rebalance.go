package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/config"
	"github.com/quantscope/equity-analyzer/internal/modules/rebalancing"
	"github.com/quantscope/equity-analyzer/internal/modules/reports"
)

// RebalanceJob builds the weekly allocation plan from the exported
// holdings file and saves it as a report.
type RebalanceJob struct {
	log      zerolog.Logger
	strategy *config.Strategy
	service  *rebalancing.Service
	reports  *reports.Formatter
	timeout  time.Duration
}

// NewRebalanceJob creates the weekly rebalance job.
func NewRebalanceJob(strategy *config.Strategy, service *rebalancing.Service, reports *reports.Formatter, log zerolog.Logger) *RebalanceJob {
	return &RebalanceJob{
		log:      log.With().Str("job", "weekly_rebalance").Logger(),
		strategy: strategy,
		service:  service,
		reports:  reports,
		timeout:  30 * time.Minute,
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "weekly_rebalance"
}

// Run loads the holdings export and produces the allocation plan.
// A degenerate portfolio (too few positions, zero variance) is logged
// and skipped, not treated as a job failure.
func (j *RebalanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.log.Info().Str("file", j.strategy.Portfolio.File).Msg("Starting weekly rebalance")

	holdings, err := rebalancing.LoadHoldingsCSV(j.strategy.Portfolio.File)
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}

	plan, err := j.service.BuildPlan(ctx, holdings, rebalancing.Options{
		Exclude:        j.strategy.Portfolio.ExcludeStocks,
		NegativeWeight: j.strategy.Portfolio.NegativeWeight,
		Period:         j.strategy.Portfolio.Period(),
	})
	if err != nil {
		if errors.Is(err, rebalancing.ErrDegenerateInput) || errors.Is(err, rebalancing.ErrEmptyOptimizationSet) {
			j.log.Warn().Err(err).Msg("Portfolio not eligible for rebalancing, skipping")
			return nil
		}
		return fmt.Errorf("failed to build plan: %w", err)
	}

	if err := j.reports.Save("rebalance", j.reports.Rebalance(plan)); err != nil {
		return err
	}

	j.log.Info().
		Int("positions", len(plan.Rows)).
		Float64("dispersion_improvement", plan.DispersionImprovement).
		Msg("Weekly rebalance completed")

	return nil
}
