package trend

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/config"
	"github.com/quantscope/equity-analyzer/internal/domain"
)

// Detector evaluates the weighted composite trend score on the most recent
// bar(s) of a price series. Five independently weighted, direction-aware
// checks each contribute their configured weight or zero.
type Detector struct {
	cfg config.TrendDetection
	log zerolog.Logger
}

// NewDetector creates a new trend detector
func NewDetector(cfg config.TrendDetection, log zerolog.Logger) *Detector {
	return &Detector{
		cfg: cfg,
		log: log.With().Str("service", "trend").Logger(),
	}
}

// Detect classifies the series as no trend (nil), potential, or strong.
// The series must be chronologically ordered. Fewer than MinBars bars is an
// expected condition and yields no signal, not an error.
func (d *Detector) Detect(bars []domain.PriceBar, dir Direction) (*Signal, error) {
	if dir != Up && dir != Down {
		return nil, fmt.Errorf("invalid trend direction %q", dir)
	}
	if len(bars) < MinBars {
		d.log.Debug().Int("bars", len(bars)).Msg("Not enough bars for trend detection")
		return nil, nil
	}

	frame := NewFrame(bars)
	factors := d.score(frame, dir)

	total := 0.0
	for _, score := range factors {
		total += score
	}

	if total < d.cfg.MinScore {
		return nil, nil
	}

	signalType := fmt.Sprintf("potential_%strend", dir)
	if total > 0.8 {
		signalType = fmt.Sprintf("strong_%strend", dir)
	}

	contributing := make(map[string]float64, len(factors))
	for name, score := range factors {
		if score > 0 {
			contributing[name] = score
		}
	}

	return &Signal{
		TotalScore:          total,
		SignalType:          signalType,
		Confidence:          total * 100,
		ContributingFactors: contributing,
	}, nil
}

// score evaluates the five checks on the latest bar(s).
func (d *Detector) score(f *Frame, dir Direction) map[string]float64 {
	weights := d.cfg.Weights
	thresholds := d.cfg.Thresholds
	up := dir == Up

	factors := map[string]float64{
		"ma":        0,
		"volume":    0,
		"momentum":  0,
		"macd":      0,
		"bollinger": 0,
	}

	// 1. Trend alignment: close vs 10-SMA vs 20-SMA, stacked in the
	// trend direction.
	if up {
		if last(f.Close) > last(f.SMA10) && last(f.SMA10) > last(f.SMA20) {
			factors["ma"] = weights.PriceMA
		}
	} else {
		if last(f.Close) < last(f.SMA10) && last(f.SMA10) < last(f.SMA20) {
			factors["ma"] = weights.PriceMA
		}
	}

	// 2. Volume confirmation: any bar in the lookback window above the
	// volume-ratio threshold. Direction-agnostic.
	lookback := d.cfg.LookbackPeriod
	if lookback > len(f.VolumeRatio) {
		lookback = len(f.VolumeRatio)
	}
	for _, ratio := range f.VolumeRatio[len(f.VolumeRatio)-lookback:] {
		if ratio > thresholds.VolumeRatio {
			factors["volume"] = weights.Volume
			break
		}
	}

	// 3. Momentum: RSI inside the configured band with the 5-period rate
	// of change pointing the same way.
	rsi := last(f.RSI)
	roc5 := last(f.ROC5)
	inBand := rsi > thresholds.RSILower && rsi < thresholds.RSIUpper
	if up {
		if inBand && roc5 > 0 {
			factors["momentum"] = weights.Momentum
		}
	} else {
		if inBand && roc5 < 0 {
			factors["momentum"] = weights.Momentum
		}
	}

	// 4. MACD crossover: a fresh cross of the signal line strictly
	// between the previous and current bar, not merely "is above".
	if up {
		if last(f.MACD) > last(f.MACDSignal) && prev(f.MACD) <= prev(f.MACDSignal) {
			factors["macd"] = weights.MACD
		}
	} else {
		if last(f.MACD) < last(f.MACDSignal) && prev(f.MACD) >= prev(f.MACDSignal) {
			factors["macd"] = weights.MACD
		}
	}

	// 5. Bollinger position: on the trend side of the middle band but
	// short of the outer band - a breach reads as exhaustion, not a
	// fresh trend.
	if up {
		if last(f.Close) > last(f.BBMiddle) && last(f.Close) < last(f.BBUpper) {
			factors["bollinger"] = weights.Bollinger
		}
	} else {
		if last(f.Close) < last(f.BBMiddle) && last(f.Close) > last(f.BBLower) {
			factors["bollinger"] = weights.Bollinger
		}
	}

	return factors
}
