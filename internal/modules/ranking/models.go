package ranking

// YearlyMetric holds the profitability and growth ratios derived for one
// symbol and one fiscal year. The trailing-twelve-month pseudo-year is
// labeled with the current calendar year. Nil means the year's statements
// were missing or degenerate, never "zero".
type YearlyMetric struct {
	Year            int      `json:"year"`
	ROCE            *float64 `json:"roce,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
}

// GrowthMetric condenses a symbol's YearlyMetric history into the five
// values the ranking is built from. Growth values come from a time-trend
// regression (slope x r-squared); level values are the latest defined year.
type GrowthMetric struct {
	ROCEGrowth                 *float64 `json:"roce_growth,omitempty"`
	ROCECurrentYear            *float64 `json:"roce_current_year,omitempty"`
	OperatingMarginGrowth      *float64 `json:"operating_margin_growth,omitempty"`
	OperatingMarginCurrentYear *float64 `json:"operating_margin_current_year,omitempty"`
	RevenueGrowthCurrentYear   *float64 `json:"revenue_growth_current_year,omitempty"`
}

// RankRecord is one row of the final ranking table.
// Rank semantics: 1 is best; ties share the minimum rank; symbols with an
// undefined metric share the rank below every defined one.
type RankRecord struct {
	Symbol    string  `json:"symbol"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"marketCap"`
	Price     float64 `json:"price"`

	Yearly []YearlyMetric `json:"yearly,omitempty"`
	Growth GrowthMetric   `json:"growth"`

	ROCEGrowthRank                 float64 `json:"roce_growth_rank"`
	ROCECurrentYearRank            float64 `json:"roce_current_year_rank"`
	OperatingMarginGrowthRank      float64 `json:"operating_margin_growth_rank"`
	OperatingMarginCurrentYearRank float64 `json:"operating_margin_current_year_rank"`
	RevenueGrowthCurrentYearRank   float64 `json:"revenue_growth_current_year_rank"`

	FinalScore float64 `json:"final_score"`
	FinalRank  float64 `json:"final_rank"`
}

// Weights are the per-rank weights of the final score. Growth ranks are
// cross-universe; the two level ranks are sector-relative.
type Weights struct {
	ROCEGrowth                 float64
	ROCECurrentYear            float64
	OperatingMarginGrowth      float64
	OperatingMarginCurrentYear float64
	RevenueGrowthCurrentYear   float64
}

// DefaultWeights returns the standard final-score weights.
func DefaultWeights() Weights {
	return Weights{
		ROCEGrowth:                 0.25,
		ROCECurrentYear:            0.20,
		OperatingMarginGrowth:      0.25,
		OperatingMarginCurrentYear: 0.20,
		RevenueGrowthCurrentYear:   0.10,
	}
}
