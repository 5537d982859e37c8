package trend

import (
	"fmt"
	"strings"
)

// Direction is the trend direction being tested for.
type Direction string

const (
	// Up tests for an emerging uptrend.
	Up Direction = "up"
	// Down tests for an emerging downtrend.
	Down Direction = "down"
)

// ParseDirection validates a direction string, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case Up, Down:
		return d, nil
	default:
		return "", fmt.Errorf("invalid trend direction %q (want up or down)", s)
	}
}

// MinBars is the shortest series the detector accepts; the 50-period moving
// average is the longest indicator window.
const MinBars = 50

// Signal is the detector's verdict for one symbol at the latest bar.
// Absence of a qualifying trend is expressed by returning no Signal at all,
// never by a zero-score Signal.
type Signal struct {
	TotalScore float64 `json:"trend_strength"`
	SignalType string  `json:"signal_type"` // strong_uptrend, potential_downtrend, ...
	Confidence float64 `json:"confidence"`  // TotalScore * 100

	// ContributingFactors holds the sub-scores that triggered, keyed
	// ma / volume / momentum / macd / bollinger.
	ContributingFactors map[string]float64 `json:"contributing_factors"`
}
