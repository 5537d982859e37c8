package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TrendScore fits an ordinary least-squares line through (x, y) and returns
// slope * r-squared: the trend direction preserved in sign, dampened by how
// well the line actually fits the series.
//
// Fewer than two points cannot define a trend, so the result is nil rather
// than zero - a zero would rank as "flat" instead of "unknown".
func TrendScore(x, y []float64) *float64 {
	if len(x) != len(y) || len(x) < 2 {
		return nil
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) {
		return nil
	}
	if beta == 0 {
		// A perfectly flat series has no trend; r-squared is undefined
		// there (zero total variance) but the score is zero either way.
		zero := 0.0
		return &zero
	}

	r2 := stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(r2) {
		return nil
	}

	score := beta * r2
	return &score
}
