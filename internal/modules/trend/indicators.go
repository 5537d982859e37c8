package trend

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

// Frame is a PriceBar sequence augmented with the derived indicator columns
// the detector scores on. All columns are computed once over the whole
// series; scoring reads only the last one or two values.
type Frame struct {
	Close  []float64
	Volume []float64

	VolumeRatio []float64 // volume / 20-period volume SMA
	ROC5        []float64 // 5-period rate of change, percent
	ROC20       []float64 // 20-period rate of change, percent

	SMA10 []float64
	SMA20 []float64
	SMA50 []float64

	SMA10Slope []float64 // 5-periods-ago to now
	SMA20Slope []float64
	SMA50Slope []float64

	RSI        []float64 // 14-period
	MACD       []float64 // 12/26 EMA difference
	MACDSignal []float64 // 9-period EMA of MACD

	BBUpper  []float64 // 20-period, +2 stddev
	BBMiddle []float64
	BBLower  []float64
}

// NewFrame computes the indicator columns for a chronologically ordered
// series. The caller guarantees at least MinBars bars.
func NewFrame(bars []domain.PriceBar) *Frame {
	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, bar := range bars {
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}

	f := &Frame{
		Close:  closes,
		Volume: volumes,
	}

	volumeMA := talib.Sma(volumes, 20)
	f.VolumeRatio = make([]float64, n)
	for i := range volumes {
		if volumeMA[i] == 0 {
			f.VolumeRatio[i] = math.NaN()
			continue
		}
		f.VolumeRatio[i] = volumes[i] / volumeMA[i]
	}

	f.ROC5 = talib.Roc(closes, 5)
	f.ROC20 = talib.Roc(closes, 20)

	f.SMA10 = talib.Sma(closes, 10)
	f.SMA20 = talib.Sma(closes, 20)
	f.SMA50 = talib.Sma(closes, 50)
	f.SMA10Slope = diff(f.SMA10, 5)
	f.SMA20Slope = diff(f.SMA20, 5)
	f.SMA50Slope = diff(f.SMA50, 5)

	f.RSI = talib.Rsi(closes, 14)
	f.MACD, f.MACDSignal, _ = talib.Macd(closes, 12, 26, 9)
	f.BBUpper, f.BBMiddle, f.BBLower = talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)

	return f
}

// diff returns s[i] - s[i-lag], NaN inside the warm-up window.
func diff(s []float64, lag int) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		if i < lag {
			out[i] = math.NaN()
			continue
		}
		out[i] = s[i] - s[i-lag]
	}
	return out
}

// last returns the most recent value of a column.
func last(s []float64) float64 {
	return s[len(s)-1]
}

// prev returns the value one bar before the most recent.
func prev(s []float64) float64 {
	return s[len(s)-2]
}
