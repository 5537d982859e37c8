package selection

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// Repository writes candidate lists as flat CSV files.
type Repository struct {
	log zerolog.Logger
}

// NewRepository creates a selection repository.
func NewRepository(log zerolog.Logger) *Repository {
	return &Repository{
		log: log.With().Str("repo", "selection").Logger(),
	}
}

// Save writes the candidate list to path, replacing any previous file.
func (r *Repository) Save(path string, candidates []Candidate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create candidates file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"date", "symbol", "position_type", "price_picked", "final_rank",
		"roce_growth_rank", "roce_current_year_rank",
		"operating_margin_growth_rank", "operating_margin_current_year_rank",
		"revenue_growth_current_year_rank",
		"trend_type", "trend_strength", "confidence", "signal_type",
		"contributing_factors",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, c := range candidates {
		row := []string{
			c.Date,
			c.Symbol,
			c.PositionType,
			strconv.FormatFloat(c.PricePicked, 'f', 3, 64),
			strconv.FormatFloat(c.FinalRank, 'f', -1, 64),
			strconv.FormatFloat(c.ROCEGrowthRank, 'f', -1, 64),
			strconv.FormatFloat(c.ROCECurrentYearRank, 'f', -1, 64),
			strconv.FormatFloat(c.OperatingMarginGrowth, 'f', -1, 64),
			strconv.FormatFloat(c.OperatingMarginLevelRank, 'f', -1, 64),
			strconv.FormatFloat(c.RevenueGrowthRank, 'f', -1, 64),
			c.TrendType,
			strconv.FormatFloat(c.TrendStrength, 'f', 3, 64),
			strconv.FormatFloat(c.Confidence, 'f', 3, 64),
			c.SignalType,
			c.ContributingFactors,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	r.log.Info().Int("rows", len(candidates)).Str("path", path).Msg("Candidates saved")
	return nil
}
