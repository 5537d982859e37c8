package rebalancing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

// LoadHoldingsCSV reads a brokerage positions export. The file carries a
// three-line preamble before the header row; market values come formatted
// as "$1,234.56". Rows whose market value does not parse are skipped.
func LoadHoldingsCSV(path string) ([]domain.Holding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio file: %w", err)
	}
	defer f.Close()

	return parseHoldings(f)
}

func parseHoldings(r io.Reader) ([]domain.Holding, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file: %w", err)
	}

	const preamble = 3
	if len(rows) <= preamble {
		return nil, fmt.Errorf("portfolio file has no header row")
	}
	rows = rows[preamble:]

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	symbolIdx, ok := col["Symbol"]
	if !ok {
		return nil, fmt.Errorf("portfolio file missing Symbol column")
	}
	valueIdx, ok := col["Mkt Val (Market Value)"]
	if !ok {
		return nil, fmt.Errorf("portfolio file missing market value column")
	}
	typeIdx, hasType := col["Security Type"]

	var holdings []domain.Holding
	for _, row := range rows[1:] {
		if symbolIdx >= len(row) || valueIdx >= len(row) {
			continue
		}

		value, err := parseMoney(row[valueIdx])
		if err != nil {
			continue
		}

		h := domain.Holding{
			Symbol:      strings.TrimSpace(row[symbolIdx]),
			MarketValue: value,
		}
		if hasType && typeIdx < len(row) {
			h.SecurityType = strings.TrimSpace(row[typeIdx])
		}
		if h.Symbol == "" {
			continue
		}
		holdings = append(holdings, h)
	}

	return holdings, nil
}

func parseMoney(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
