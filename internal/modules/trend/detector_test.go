package trend

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantscope/equity-analyzer/internal/config"
	"github.com/quantscope/equity-analyzer/internal/domain"
)

// linearBars builds n chronologically ordered bars whose close moves by
// step per bar from start, with constant volume.
func linearBars(n int, start, step, volume float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = domain.PriceBar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

// zigzagBars builds n bars alternating a gain and a smaller loss: a mild
// uptrend with two-sided daily changes, so RSI settles mid-band instead of
// pinning at an extreme.
func zigzagBars(n int, start, gain, loss, volume float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, n)
	c := start
	for i := range bars {
		if i > 0 {
			if i%2 == 1 {
				c += gain
			} else {
				c -= loss
			}
		}
		bars[i] = domain.PriceBar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

func defaultDetector() *Detector {
	return NewDetector(config.DefaultStrategy().TrendDetection, zerolog.Nop())
}

func TestFrameRSIBounds(t *testing.T) {
	// Wilder RSI stays within [0, 100] on any mixed series past its
	// warm-up window.
	mixed := NewFrame(zigzagBars(60, 100, 1.5, 1.0, 1000))
	for i := 14; i < len(mixed.RSI); i++ {
		assert.GreaterOrEqual(t, mixed.RSI[i], 0.0, "bar %d", i)
		assert.LessOrEqual(t, mixed.RSI[i], 100.0, "bar %d", i)
	}

	// A series that never closes down has zero average loss and pins RSI
	// at the upper limit; a series that never closes up pins it at zero.
	rising := NewFrame(linearBars(60, 100, 1, 1000))
	assert.InDelta(t, 100.0, last(rising.RSI), 1e-9)

	falling := NewFrame(linearBars(60, 200, -1, 1000))
	assert.InDelta(t, 0.0, last(falling.RSI), 1e-9)
}

func TestDetectMomentumCheck(t *testing.T) {
	// The +1.5/-1.0 zigzag holds RSI near 60, inside the default 40-70
	// band, while the 5-bar rate of change stays positive: the momentum
	// check fires alongside the moving-average alignment.
	bars := zigzagBars(60, 100, 1.5, 1.0, 1000)

	signal, err := defaultDetector().Detect(bars, Up)
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, 0.25, signal.ContributingFactors["momentum"])
	assert.Equal(t, 0.25, signal.ContributingFactors["ma"])
	assert.GreaterOrEqual(t, signal.TotalScore, 0.5)
}

func TestDetectInvalidDirection(t *testing.T) {
	_, err := defaultDetector().Detect(linearBars(60, 100, 1, 1000), Direction("sideways"))
	assert.Error(t, err)
}

func TestDetectTooFewBars(t *testing.T) {
	signal, err := defaultDetector().Detect(linearBars(MinBars-1, 100, 1, 1000), Up)
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestDetectFlatSeriesNoSignal(t *testing.T) {
	// A perfectly flat series passes none of the five checks; the detector
	// must stay silent rather than emit a zero-score signal.
	signal, err := defaultDetector().Detect(linearBars(60, 100, 0, 1000), Up)
	require.NoError(t, err)
	assert.Nil(t, signal)

	signal, err = defaultDetector().Detect(linearBars(60, 100, 0, 1000), Down)
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestDetectUptrend(t *testing.T) {
	// Steadily rising closes with a volume spike on the last bar: the
	// moving-average, volume and bollinger checks fire (0.25+0.20+0.10).
	// RSI pins at 100 on a loss-free series, so momentum stays out, and a
	// long-established MACD cross is not a fresh one.
	bars := linearBars(60, 100, 1, 1000)
	bars[len(bars)-1].Volume = 5000

	signal, err := defaultDetector().Detect(bars, Up)
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, "potential_uptrend", signal.SignalType)
	assert.InDelta(t, 0.55, signal.TotalScore, 1e-9)
	assert.InDelta(t, 55, signal.Confidence, 1e-9)

	assert.Contains(t, signal.ContributingFactors, "ma")
	assert.Contains(t, signal.ContributingFactors, "volume")
	assert.Contains(t, signal.ContributingFactors, "bollinger")
	assert.NotContains(t, signal.ContributingFactors, "momentum")
	assert.NotContains(t, signal.ContributingFactors, "macd")
}

func TestDetectDowntrend(t *testing.T) {
	bars := linearBars(60, 200, -1, 1000)
	bars[len(bars)-1].Volume = 5000

	signal, err := defaultDetector().Detect(bars, Down)
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, "potential_downtrend", signal.SignalType)
	assert.InDelta(t, 0.55, signal.TotalScore, 1e-9)
}

func TestDetectDirectionMismatch(t *testing.T) {
	// A rising series scanned for a downtrend fails the direction-aware
	// checks; only the direction-agnostic volume check can fire, which is
	// below the gate.
	bars := linearBars(60, 100, 1, 1000)
	bars[len(bars)-1].Volume = 5000

	signal, err := defaultDetector().Detect(bars, Down)
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestDetectStrongSignal(t *testing.T) {
	// Reweight the three checks a linear rising series can fire so they
	// alone push the total past the strong threshold.
	cfg := config.DefaultStrategy().TrendDetection
	cfg.Weights = config.IndicatorWeights{
		PriceMA:   0.50,
		Volume:    0.25,
		Momentum:  0.05,
		MACD:      0.05,
		Bollinger: 0.15,
	}
	detector := NewDetector(cfg, zerolog.Nop())

	bars := linearBars(60, 100, 1, 1000)
	bars[len(bars)-1].Volume = 5000

	signal, err := detector.Detect(bars, Up)
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, "strong_uptrend", signal.SignalType)
	assert.InDelta(t, 0.90, signal.TotalScore, 1e-9)
}

func TestDetectMinScoreGate(t *testing.T) {
	// Raise the gate above what this series can score: no signal.
	cfg := config.DefaultStrategy().TrendDetection
	cfg.MinScore = 0.6
	detector := NewDetector(cfg, zerolog.Nop())

	bars := linearBars(60, 100, 1, 1000)
	bars[len(bars)-1].Volume = 5000

	signal, err := detector.Detect(bars, Up)
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"up", Up, false},
		{"down", Down, false},
		{"UP", Up, false},
		{"sideways", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
