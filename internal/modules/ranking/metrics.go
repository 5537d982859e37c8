package ranking

import (
	"sort"
	"strconv"
	"strings"

	"github.com/quantscope/equity-analyzer/internal/domain"
	"github.com/quantscope/equity-analyzer/pkg/formulas"
)

// statementSet bundles the four statement fetches one symbol needs.
type statementSet struct {
	QuarterlyIncome  []domain.IncomeStatement
	QuarterlyBalance []domain.BalanceSheet
	AnnualIncome     []domain.IncomeStatement
	AnnualBalance    []domain.BalanceSheet
}

// deriveYearlyMetrics builds the YearlyMetric series for one symbol: a
// trailing-twelve-month pseudo-year labeled currentYear, plus one entry per
// fiscal year in [currentYear-years, currentYear).
//
// A ratio is only defined when its inputs are present and its denominator
// is nonzero; providers report absent fields as zero, so zero inputs also
// yield no entry. Years without statement data are simply absent from the
// result - sparse, not zero.
func deriveYearlyMetrics(stmts statementSet, years, currentYear int) []YearlyMetric {
	var metrics []YearlyMetric

	for year := currentYear - years; year < currentYear; year++ {
		income, incomeOK := rowForYear(stmts.AnnualIncome, year)
		balance, balanceOK := balanceForYear(stmts.AnnualBalance, year)
		if !incomeOK || !balanceOK {
			continue
		}

		ebit := income.OperatingIncome
		revenue := income.Revenue
		capital := balance.CapitalEmployed()
		if ebit == 0 || revenue == 0 || capital == 0 {
			continue
		}

		m := YearlyMetric{Year: year}
		m.ROCE = ptr(ebit / capital)
		m.OperatingMargin = ptr(ebit / revenue)

		if prev, ok := rowForYear(stmts.AnnualIncome, year-1); ok && prev.Revenue != 0 {
			m.RevenueGrowth = ptr((revenue - prev.Revenue) / prev.Revenue)
		}

		metrics = append(metrics, m)
	}

	if ttm, ok := deriveTTM(stmts, currentYear); ok {
		metrics = append(metrics, ttm)
	}

	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Year < metrics[j].Year })
	return metrics
}

// deriveTTM sums the four most recent quarters and reads the latest
// quarterly balance sheet into a pseudo-year labeled currentYear.
func deriveTTM(stmts statementSet, currentYear int) (YearlyMetric, bool) {
	if len(stmts.QuarterlyIncome) == 0 || len(stmts.QuarterlyBalance) == 0 {
		return YearlyMetric{}, false
	}

	quarters := stmts.QuarterlyIncome
	if len(quarters) > 4 {
		quarters = quarters[:4]
	}

	var ttmEBIT, ttmRevenue float64
	for _, q := range quarters {
		ttmEBIT += q.OperatingIncome
		ttmRevenue += q.Revenue
	}

	capital := stmts.QuarterlyBalance[0].CapitalEmployed()
	if capital == 0 || ttmRevenue == 0 {
		return YearlyMetric{}, false
	}

	m := YearlyMetric{Year: currentYear}
	m.ROCE = ptr(ttmEBIT / capital)
	m.OperatingMargin = ptr(ttmEBIT / ttmRevenue)

	// Revenue growth of the TTM year compares against the latest full
	// fiscal year.
	if len(stmts.AnnualIncome) > 0 && stmts.AnnualIncome[0].Revenue != 0 {
		lastRevenue := stmts.AnnualIncome[0].Revenue
		m.RevenueGrowth = ptr((ttmRevenue - lastRevenue) / lastRevenue)
	}

	return m, true
}

// deriveGrowth condenses a yearly series into the five ranked values.
// Growth scores need at least two defined years; otherwise they stay nil.
func deriveGrowth(yearly []YearlyMetric) GrowthMetric {
	var g GrowthMetric

	years, roces := series(yearly, func(m YearlyMetric) *float64 { return m.ROCE })
	g.ROCEGrowth = formulas.TrendScore(years, roces)
	if n := len(roces); n > 0 {
		g.ROCECurrentYear = ptr(roces[n-1])
	}

	years, margins := series(yearly, func(m YearlyMetric) *float64 { return m.OperatingMargin })
	g.OperatingMarginGrowth = formulas.TrendScore(years, margins)
	if n := len(margins); n > 0 {
		g.OperatingMarginCurrentYear = ptr(margins[n-1])
	}

	_, growths := series(yearly, func(m YearlyMetric) *float64 { return m.RevenueGrowth })
	if n := len(growths); n > 0 {
		g.RevenueGrowthCurrentYear = ptr(growths[n-1])
	}

	return g
}

// series extracts the defined (year, value) pairs of one metric, in year
// order.
func series(yearly []YearlyMetric, pick func(YearlyMetric) *float64) (years, values []float64) {
	for _, m := range yearly {
		if v := pick(m); v != nil {
			years = append(years, float64(m.Year))
			values = append(values, *v)
		}
	}
	return years, values
}

// rowForYear finds the first statement row whose date falls in the given
// calendar year.
func rowForYear(rows []domain.IncomeStatement, year int) (domain.IncomeStatement, bool) {
	prefix := strconv.Itoa(year)
	for _, row := range rows {
		if strings.HasPrefix(row.Date, prefix) {
			return row, true
		}
	}
	return domain.IncomeStatement{}, false
}

func balanceForYear(rows []domain.BalanceSheet, year int) (domain.BalanceSheet, bool) {
	prefix := strconv.Itoa(year)
	for _, row := range rows {
		if strings.HasPrefix(row.Date, prefix) {
			return row, true
		}
	}
	return domain.BalanceSheet{}, false
}

func ptr(f float64) *float64 {
	return &f
}
