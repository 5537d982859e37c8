package domain

import "time"

// PriceBar is a single daily OHLCV observation.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IncomeStatement is one income-statement row from the statement provider.
// Zero values mean the field was absent upstream; the metric derivations
// treat zero and missing identically.
type IncomeStatement struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	Revenue         float64 `json:"revenue"`
	OperatingIncome float64 `json:"operatingIncome"`
}

// BalanceSheet is one balance-sheet row from the statement provider.
type BalanceSheet struct {
	Date             string  `json:"date"`
	TotalAssets      float64 `json:"totalAssets"`
	TotalCurrentLiab float64 `json:"totalCurrentLiabilities"`
}

// CapitalEmployed returns total assets minus total current liabilities.
func (b BalanceSheet) CapitalEmployed() float64 {
	return b.TotalAssets - b.TotalCurrentLiab
}

// ScreenedStock is one row of the tradable universe.
type ScreenedStock struct {
	Symbol    string  `json:"symbol"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"marketCap"`
	Price     float64 `json:"price"`
}

// Holding is one current-portfolio row.
type Holding struct {
	Symbol       string  `json:"symbol"`
	MarketValue  float64 `json:"market_value"`
	SecurityType string  `json:"security_type"`
}
