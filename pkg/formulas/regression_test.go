package formulas

import (
	"math"
	"testing"
)

func TestTrendScore(t *testing.T) {
	t.Run("perfect rising line", func(t *testing.T) {
		// y = 2x + 1 fits exactly: slope 2, r-squared 1.
		x := []float64{0, 1, 2, 3, 4}
		y := []float64{1, 3, 5, 7, 9}

		got := TrendScore(x, y)
		if got == nil {
			t.Fatal("expected a score, got nil")
		}
		if math.Abs(*got-2.0) > 1e-9 {
			t.Errorf("TrendScore = %v, want 2.0", *got)
		}
	})

	t.Run("perfect falling line keeps sign", func(t *testing.T) {
		x := []float64{0, 1, 2, 3}
		y := []float64{9, 6, 3, 0}

		got := TrendScore(x, y)
		if got == nil {
			t.Fatal("expected a score, got nil")
		}
		if math.Abs(*got-(-3.0)) > 1e-9 {
			t.Errorf("TrendScore = %v, want -3.0", *got)
		}
	})

	t.Run("noise dampens the score", func(t *testing.T) {
		x := []float64{0, 1, 2, 3, 4, 5}
		y := []float64{1, 4, 2, 6, 3, 8}

		got := TrendScore(x, y)
		if got == nil {
			t.Fatal("expected a score, got nil")
		}
		if *got <= 0 {
			t.Errorf("rising noisy series should score positive, got %v", *got)
		}
		// The fit is imperfect, so the score must sit below the raw slope
		// (18/17.5 ≈ 1.029 for this series).
		if *got >= 1.028 {
			t.Errorf("score %v should be dampened below the slope", *got)
		}
	})

	t.Run("flat series scores zero", func(t *testing.T) {
		x := []float64{0, 1, 2, 3}
		y := []float64{5, 5, 5, 5}

		got := TrendScore(x, y)
		if got == nil {
			t.Fatal("flat series should score zero, not nil")
		}
		if *got != 0 {
			t.Errorf("TrendScore = %v, want 0", *got)
		}
	})

	t.Run("single point is undefined", func(t *testing.T) {
		if got := TrendScore([]float64{1}, []float64{2}); got != nil {
			t.Errorf("expected nil for a single point, got %v", *got)
		}
	})

	t.Run("empty input is undefined", func(t *testing.T) {
		if got := TrendScore(nil, nil); got != nil {
			t.Errorf("expected nil for empty input, got %v", *got)
		}
	})

	t.Run("mismatched lengths are undefined", func(t *testing.T) {
		if got := TrendScore([]float64{1, 2}, []float64{1}); got != nil {
			t.Errorf("expected nil for mismatched input, got %v", *got)
		}
	})
}
