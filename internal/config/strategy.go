package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Strategy holds the tunable analysis parameters: ranking weights, trend
// detection weights and thresholds, position filters, and the portfolio
// rebalancing settings.
type Strategy struct {
	Ranking        Ranking        `yaml:"ranking"`
	TrendDetection TrendDetection `yaml:"trend_detection"`
	StockFilters   StockFilters   `yaml:"stock_filters"`
	Portfolio      Portfolio      `yaml:"portfolio"`
	Market         Market         `yaml:"market"`
	Paths          Paths          `yaml:"paths"`
}

// Ranking configures the fundamental ranking engine.
type Ranking struct {
	Years         int            `yaml:"years"`
	UniverseLimit int            `yaml:"universe_limit"`
	Weights       RankingWeights `yaml:"weights"`
}

// RankingWeights are the per-rank weights of the final score.
type RankingWeights struct {
	ROCEGrowth            float64 `yaml:"roce_growth"`
	ROCECurrentYear       float64 `yaml:"roce_current_year"`
	OperatingMarginGrowth float64 `yaml:"operating_margin_growth"`
	OperatingMarginLevel  float64 `yaml:"operating_margin_current_year"`
	RevenueGrowth         float64 `yaml:"revenue_growth_current_year"`
}

// TrendDetection configures the technical trend detector.
type TrendDetection struct {
	LookbackPeriod int              `yaml:"lookback_period"`
	MinScore       float64          `yaml:"min_score"`
	Weights        IndicatorWeights `yaml:"indicator_weights"`
	Thresholds     TrendThresholds  `yaml:"thresholds"`
}

// IndicatorWeights are the per-check weights of the composite trend score.
type IndicatorWeights struct {
	PriceMA   float64 `yaml:"price_ma"`
	Volume    float64 `yaml:"volume"`
	Momentum  float64 `yaml:"momentum"`
	MACD      float64 `yaml:"macd"`
	Bollinger float64 `yaml:"bollinger"`
}

// TrendThresholds are the trigger levels of the trend checks.
type TrendThresholds struct {
	VolumeRatio     float64 `yaml:"volume_ratio"`
	RSILower        float64 `yaml:"rsi_lower"`
	RSIUpper        float64 `yaml:"rsi_upper"`
	PriceDataPeriod string  `yaml:"price_data_period"`
}

// StockFilters hold the long and short position selection settings.
type StockFilters struct {
	Long  PositionFilter `yaml:"long"`
	Short PositionFilter `yaml:"short"`
}

// PositionFilter is one side's selection settings: the rank cutoff and the
// screener query parameters for that side's universe.
type PositionFilter struct {
	RankCondition float64           `yaml:"rank_condition"`
	Screen        map[string]string `yaml:"screen"`
}

// Portfolio holds rebalancing settings.
type Portfolio struct {
	File           string   `yaml:"file"`
	ExcludeStocks  []string `yaml:"exclude_stocks"`
	NegativeWeight float64  `yaml:"negative_weight"`
	WindowDays     int      `yaml:"window_days"`
}

// Period maps the configured lookback window to the nearest provider
// range.
func (p Portfolio) Period() string {
	switch {
	case p.WindowDays <= 0:
		return "1mo"
	case p.WindowDays <= 31:
		return "1mo"
	case p.WindowDays <= 93:
		return "3mo"
	case p.WindowDays <= 186:
		return "6mo"
	default:
		return "1y"
	}
}

// Market holds the index regime settings.
type Market struct {
	Indexes []string `yaml:"indexes"`
}

// Paths are the flat-file output locations.
type Paths struct {
	StockScores     string `yaml:"stock_scores"`
	InvestingStocks string `yaml:"investing_stocks"`
	ShortStocks     string `yaml:"short_stocks"`
	Reports         string `yaml:"reports"`
}

// DefaultStrategy returns the strategy defaults; the YAML file overrides
// whichever fields it sets.
func DefaultStrategy() Strategy {
	return Strategy{
		Ranking: Ranking{
			Years:         10,
			UniverseLimit: 1000,
			Weights: RankingWeights{
				ROCEGrowth:            0.25,
				ROCECurrentYear:       0.20,
				OperatingMarginGrowth: 0.25,
				OperatingMarginLevel:  0.20,
				RevenueGrowth:         0.10,
			},
		},
		TrendDetection: TrendDetection{
			LookbackPeriod: 5,
			MinScore:       0.5,
			Weights: IndicatorWeights{
				PriceMA:   0.25,
				Volume:    0.20,
				Momentum:  0.25,
				MACD:      0.20,
				Bollinger: 0.10,
			},
			Thresholds: TrendThresholds{
				VolumeRatio:     1.5,
				RSILower:        40,
				RSIUpper:        70,
				PriceDataPeriod: "6mo",
			},
		},
		StockFilters: StockFilters{
			Long:  PositionFilter{RankCondition: 100},
			Short: PositionFilter{RankCondition: 400},
		},
		Portfolio: Portfolio{
			NegativeWeight: 10,
			WindowDays:     30,
		},
		Market: Market{
			Indexes: []string{"SPY", "QQQ", "DIA", "IWM"},
		},
		Paths: Paths{
			StockScores:     "./data/stock_scores.csv",
			InvestingStocks: "./data/investing_stocks.csv",
			ShortStocks:     "./data/short_stocks.csv",
			Reports:         "./data/reports",
		},
	}
}

// LoadStrategy reads the strategy YAML file on top of the defaults.
// A missing file is not an error: the defaults stand.
func LoadStrategy(path string) (*Strategy, error) {
	strategy := DefaultStrategy()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &strategy, nil
		}
		return nil, fmt.Errorf("failed to read strategy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &strategy); err != nil {
		return nil, fmt.Errorf("invalid strategy yaml: %w", err)
	}

	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	return &strategy, nil
}

// Validate rejects strategy settings the engines cannot run with.
func (s *Strategy) Validate() error {
	if s.Ranking.Years < 1 {
		return fmt.Errorf("ranking.years must be at least 1, got %d", s.Ranking.Years)
	}
	if s.TrendDetection.MinScore < 0 || s.TrendDetection.MinScore > 1 {
		return fmt.Errorf("trend_detection.min_score must be within [0, 1], got %v", s.TrendDetection.MinScore)
	}
	if s.TrendDetection.LookbackPeriod < 1 {
		return fmt.Errorf("trend_detection.lookback_period must be at least 1, got %d", s.TrendDetection.LookbackPeriod)
	}
	if s.Portfolio.NegativeWeight <= 0 {
		return fmt.Errorf("portfolio.negative_weight must be positive, got %v", s.Portfolio.NegativeWeight)
	}
	return nil
}
