package ranking

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/pkg/formulas"
)

// Repository persists the ranking table as a flat CSV file: one row per
// symbol with all yearly metric columns (percent-scaled) and all rank
// columns, so a later run can reload it as the scoring baseline for
// position selection.
type Repository struct {
	path string
	log  zerolog.Logger
}

// NewRepository creates a ranking table repository writing to path.
func NewRepository(path string, log zerolog.Logger) *Repository {
	return &Repository{
		path: path,
		log:  log.With().Str("repo", "ranking").Logger(),
	}
}

var rankColumns = []string{
	"roce_growth", "roce_current_year",
	"operating_margin_growth", "operating_margin_current_year",
	"revenue_growth_current_year",
	"roce_growth_rank", "roce_current_year_rank",
	"operating_margin_growth_rank", "operating_margin_current_year_rank",
	"revenue_growth_current_year_rank",
	"final_score", "final_rank",
}

// Save writes the full ranking table, replacing any previous file.
func (r *Repository) Save(records []RankRecord) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create ranking file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	minYear, maxYear := yearRange(records)

	header := []string{"symbol", "sector", "market_cap_b", "price"}
	for year := minYear; minYear > 0 && year <= maxYear; year++ {
		header = append(header,
			fmt.Sprintf("roce_%d", year),
			fmt.Sprintf("operating_margin_%d", year),
			fmt.Sprintf("revenue_growth_%d", year),
		)
	}
	header = append(header, rankColumns...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Symbol,
			rec.Sector,
			formatFloat(formulas.Round(rec.MarketCap/1e9, 2)),
			formatFloat(formulas.Round(rec.Price, 2)),
		}

		byYear := make(map[int]YearlyMetric, len(rec.Yearly))
		for _, m := range rec.Yearly {
			byYear[m.Year] = m
		}
		for year := minYear; minYear > 0 && year <= maxYear; year++ {
			m := byYear[year]
			row = append(row, formatPercent(m.ROCE), formatPercent(m.OperatingMargin), formatPercent(m.RevenueGrowth))
		}

		row = append(row,
			formatPercent(rec.Growth.ROCEGrowth),
			formatPercent(rec.Growth.ROCECurrentYear),
			formatPercent(rec.Growth.OperatingMarginGrowth),
			formatPercent(rec.Growth.OperatingMarginCurrentYear),
			formatPercent(rec.Growth.RevenueGrowthCurrentYear),
			formatFloat(rec.ROCEGrowthRank),
			formatFloat(rec.ROCECurrentYearRank),
			formatFloat(rec.OperatingMarginGrowthRank),
			formatFloat(rec.OperatingMarginCurrentYearRank),
			formatFloat(rec.RevenueGrowthCurrentYearRank),
			formatFloat(formulas.Round(rec.FinalScore, 2)),
			formatFloat(rec.FinalRank),
		)

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	r.log.Info().Int("rows", len(records)).Str("path", r.path).Msg("Ranking table saved")
	return nil
}

// Load reads the rank columns back as the position-selection baseline.
// Yearly metric columns are presentation data and are not reconstructed.
func (r *Repository) Load() ([]RankRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ranking file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking file: %w", err)
	}
	if len(rows) < 1 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, required := range []string{"symbol", "final_rank"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("ranking file missing %q column", required)
		}
	}

	records := make([]RankRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := RankRecord{
			Symbol: row[col["symbol"]],
		}
		if i, ok := col["sector"]; ok {
			rec.Sector = row[i]
		}
		rec.ROCEGrowthRank = parseFloat(row, col, "roce_growth_rank")
		rec.ROCECurrentYearRank = parseFloat(row, col, "roce_current_year_rank")
		rec.OperatingMarginGrowthRank = parseFloat(row, col, "operating_margin_growth_rank")
		rec.OperatingMarginCurrentYearRank = parseFloat(row, col, "operating_margin_current_year_rank")
		rec.RevenueGrowthCurrentYearRank = parseFloat(row, col, "revenue_growth_current_year_rank")
		rec.FinalScore = parseFloat(row, col, "final_score")
		rec.FinalRank = parseFloat(row, col, "final_rank")
		records = append(records, rec)
	}

	return records, nil
}

func yearRange(records []RankRecord) (int, int) {
	minYear, maxYear := 0, 0
	for _, rec := range records {
		for _, m := range rec.Yearly {
			if minYear == 0 || m.Year < minYear {
				minYear = m.Year
			}
			if m.Year > maxYear {
				maxYear = m.Year
			}
		}
	}
	return minYear, maxYear
}

func formatPercent(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(formulas.Round(*v*100, 2), 'f', -1, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(row []string, col map[string]int, name string) float64 {
	i, ok := col[name]
	if !ok || i >= len(row) || row[i] == "" {
		return 0
	}
	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil {
		return 0
	}
	return v
}
