package rebalancing

import "errors"

// ErrDegenerateInput marks inputs the allocation math cannot run on: an
// all-zero variance sum, a zero-variance holding, or a zero standard
// deviation of the percent columns. Reported explicitly instead of letting
// NaN or Inf leak into the plan.
var ErrDegenerateInput = errors.New("degenerate rebalancing input")

// ErrEmptyOptimizationSet is returned when exclusions and failed history
// fetches leave nothing to optimize.
var ErrEmptyOptimizationSet = errors.New("optimization set is empty")

// PlanRow is one non-excluded holding's allocation change.
type PlanRow struct {
	Symbol         string  `json:"symbol"`
	CurrentPercent float64 `json:"current_percent"`
	IdealPercent   float64 `json:"ideal_percent"`
	CashChange     float64 `json:"cash_change"`
}

// Plan is the full rebalancing output, produced once per run and fully
// replacing any previous plan. Cash changes sum to zero exactly.
type Plan struct {
	Rows []PlanRow `json:"rows"`

	// DispersionImprovement compares the statistical spread of the ideal
	// vs current percent columns: ((1/idealStd) / (1/currentStd) - 1) * 100.
	// A heuristic specific to this system, not a Sharpe ratio.
	DispersionImprovement float64 `json:"dispersion_improvement"`

	TotalValue float64  `json:"total_value"`
	Excluded   []string `json:"excluded"`
}
