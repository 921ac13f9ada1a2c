package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

func computeImpacts(m domain.Metrics, currentSavings float64) domain.Impacts {
	need1 := needForSafety(m.BaselineMonthly, 1, currentSavings)
	need3 := needForSafety(m.BaselineMonthly, 3, currentSavings)
	need6 := needForSafety(m.BaselineMonthly, 6, currentSavings)

	impacts := domain.Impacts{
		VariableCut10CHF:        roundCHF(m.VariableExpensesMonthly * 0.10),
		VariableCut15CHF:        roundCHF(m.VariableExpensesMonthly * 0.15),
		NeedForSafety1MonthCHF:  roundCHF(need1),
		NeedForSafety3MonthsCHF: roundCHF(need3),
		NeedForSafety6MonthsCHF: roundCHF(need6),
	}
	if m.MonthlySavingsCapacity > 0 {
		if months := math.Ceil(need3 / m.MonthlySavingsCapacity); months <= math.MaxInt32 {
			n := int(months)
			impacts.MonthsToSafety3 = &n
		}
	}
	if m.MonthlySavingsCapacity < 0 {
		impacts.MonthlyDeficitCHF = roundCHF(-m.MonthlySavingsCapacity)
	}
	return impacts
}

func needForSafety(baseline float64, months int, currentSavings float64) float64 {
	return math.Max(0, baseline*float64(months)-currentSavings)
}

// roundCHF rounds half away from zero to whole francs, saturating at the
// int64 range.
func roundCHF(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	d := decimal.NewFromFloat(v).Round(0)
	switch {
	case d.GreaterThan(maxCHF):
		return math.MaxInt64
	case d.LessThan(minCHF):
		return math.MinInt64
	}
	return d.IntPart()
}

var (
	maxCHF = decimal.NewFromInt(math.MaxInt64)
	minCHF = decimal.NewFromInt(math.MinInt64)
)
