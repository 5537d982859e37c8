package selection

import "fmt"

// Side is the position side being selected for.
type Side string

const (
	// Long selects buy candidates: top-ranked value names in an uptrend.
	Long Side = "long"
	// Short selects short candidates: bottom-ranked names in a downtrend.
	Short Side = "short"
)

// ParseSide validates a side string.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Long, Short:
		return Side(s), nil
	default:
		return "", fmt.Errorf("invalid position side %q (want long or short)", s)
	}
}

// Candidate is one selected position: a ranking row that survived the
// screener intersection and carries a confirming trend signal.
type Candidate struct {
	Date         string  `json:"date"`
	Symbol       string  `json:"symbol"`
	PositionType string  `json:"position_type"`
	PricePicked  float64 `json:"price_picked"`

	FinalRank                float64 `json:"final_rank"`
	ROCEGrowthRank           float64 `json:"roce_growth_rank"`
	ROCECurrentYearRank      float64 `json:"roce_current_year_rank"`
	OperatingMarginGrowth    float64 `json:"operating_margin_growth_rank"`
	OperatingMarginLevelRank float64 `json:"operating_margin_current_year_rank"`
	RevenueGrowthRank        float64 `json:"revenue_growth_current_year_rank"`

	TrendType           string  `json:"trend_type"`
	TrendStrength       float64 `json:"trend_strength"`
	SignalType          string  `json:"signal_type"`
	Confidence          float64 `json:"confidence"`
	ContributingFactors string  `json:"contributing_factors"`
}
