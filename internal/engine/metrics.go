package engine

import (
	"math"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

func buildMetrics(n normalized) domain.Metrics {
	total := n.fixed + n.variable + n.exceptional + n.debt + n.tax
	capacity := n.income - total
	baseline := n.fixed + n.variable

	return domain.Metrics{
		IncomeNetMonthly:           n.income,
		FixedExpensesMonthly:       n.fixed,
		VariableExpensesMonthly:    n.variable,
		DebtPaymentsMonthly:        n.debt,
		TaxReserveMonthly:          n.tax,
		ExceptionalExpensesMonthly: n.exceptional,
		TotalExpensesMonthly:       total,
		MonthlySavingsCapacity:     capacity,
		FixedRatio:                 ratio(n.fixed, n.income),
		VariableRatio:              ratio(n.variable, n.income),
		DebtRatio:                  ratio(n.debt, n.income),
		TaxRatio:                   ratio(n.tax, n.income),
		ExceptionalRatio:           ratio(n.exceptional, n.income),
		SavingsRate:                ratio(capacity, n.income),
		LeftoverAfterFixedDebtTax:  n.income - n.fixed - n.debt - n.tax,
		BaselineMonthly:            baseline,
		// runway over fixed+variable only; capacity above uses the full total
		SafetyMonths: ratio(n.currentSavings, baseline),
	}
}

// ratio divides, returning 0 for a non-positive denominator or a
// non-finite quotient.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}
