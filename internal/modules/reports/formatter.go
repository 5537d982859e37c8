package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/modules/market"
	"github.com/quantscope/equity-analyzer/internal/modules/rebalancing"
	"github.com/quantscope/equity-analyzer/internal/modules/selection"
)

// Formatter renders the analysis results as plain-text reports and saves
// them as flat files.
type Formatter struct {
	dir string
	log zerolog.Logger
}

// NewFormatter creates a report formatter writing into dir.
func NewFormatter(dir string, log zerolog.Logger) *Formatter {
	return &Formatter{
		dir: dir,
		log: log.With().Str("component", "reports").Logger(),
	}
}

// StockAnalysis renders the daily long/short candidate report.
func (f *Formatter) StockAnalysis(long, short []selection.Candidate, regimes []market.IndexRegime) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s Stock Analysis\n", time.Now().Format("2006-01-02"))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	b.WriteString("Market Overview\n---------------\n")
	for _, regime := range regimes {
		fmt.Fprintf(&b, "Index: %s\n", regime.Symbol)
		fmt.Fprintf(&b, "  Near  - 1 Month ------- %s\n", regime.Near)
		fmt.Fprintf(&b, "  Med   - 3 Month ------- %s\n", regime.Medium)
		fmt.Fprintf(&b, "  Long  - 1 Year  ------- %s\n\n", regime.Long)
	}

	writeSide := func(title string, candidates []selection.Candidate) {
		fmt.Fprintf(&b, "%s (%d)\n%s\n", title, len(candidates), strings.Repeat("-", len(title)+4))
		if len(candidates) == 0 {
			b.WriteString("  none\n\n")
			return
		}
		for _, c := range candidates {
			fmt.Fprintf(&b, "  %-6s rank %-4.0f price %8.2f  %s (%.0f%%)\n",
				c.Symbol, c.FinalRank, c.PricePicked, c.SignalType, c.Confidence)
		}
		b.WriteString("\n")
	}

	writeSide("Long Candidates", long)
	writeSide("Short Candidates", short)

	return b.String()
}

// Rebalance renders the weekly allocation-plan report.
func (f *Formatter) Rebalance(plan *rebalancing.Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s Portfolio Rebalance\n", time.Now().Format("2006-01-02"))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	fmt.Fprintf(&b, "Total portfolio value: %.0f\n", plan.TotalValue)
	fmt.Fprintf(&b, "Dispersion improvement: %.2f%%\n", plan.DispersionImprovement)
	if len(plan.Excluded) > 0 {
		fmt.Fprintf(&b, "Held at current weight: %s\n", strings.Join(plan.Excluded, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%-8s %8s %8s %12s\n", "symbol", "current%", "ideal%", "cash change")
	for _, row := range plan.Rows {
		fmt.Fprintf(&b, "%-8s %8.0f %8.0f %12.0f\n",
			row.Symbol, row.CurrentPercent, row.IdealPercent, row.CashChange)
	}

	return b.String()
}

// Save writes a rendered report under the reports directory.
func (f *Formatter) Save(name, body string) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	path := filepath.Join(f.dir, fmt.Sprintf("%s_%s.txt", time.Now().Format("2006-01-02"), name))
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	f.log.Info().Str("path", path).Msg("Report saved")
	return nil
}
