package engine

import (
	"math"
	"strings"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

const (
	grossToNetEmployee     = 0.86
	grossToNetSelfEmployed = 0.75
	weeksPerYear           = 52
	monthsPerYear          = 12

	// MaxAmountCHF bounds every input amount so sums, products and ratios
	// stay finite.
	MaxAmountCHF = 1e12
)

// normalized holds the canonical monthly CHF figures of one snapshot.
type normalized struct {
	income      float64
	fixed       float64
	variable    float64
	debt        float64
	exceptional float64
	tax         float64

	currentSavings        float64
	currentAccountBalance float64
	investmentBalance     float64
}

func normalize(s *domain.FinancialSnapshot) normalized {
	n := normalized{
		fixed:    explicitOr(s.FixedExpensesMonthly, func() float64 { return sumMonthly(s.Expenses.Fixed) }),
		variable: explicitOr(s.VariableExpensesMonthly, func() float64 { return sumMonthly(s.Expenses.Variable) }),
		debt:     explicitOr(s.DebtPaymentsMonthly, func() float64 { return sumMonthly(s.Loans) }),
		exceptional: explicitOr(s.ExceptionalExpensesMonthly, func() float64 {
			return sumMonthly(s.Expenses.Exceptional) + sumMonthly(s.ExceptionalAnnual)
		}),
		tax: resolveTaxReserve(s),

		currentSavings:        clampAmount(s.CurrentSavings.Float()),
		currentAccountBalance: clampAmount(s.CurrentAccountBalance.Float()),
		investmentBalance:     clampAmount(s.InvestmentBalance.Float()),
	}
	n.income = resolveIncome(s)
	return n
}

// resolveIncome applies incomeNetMonthly > entries + spouse > incomeNet.
func resolveIncome(s *domain.FinancialSnapshot) float64 {
	if v := positive(s.IncomeNetMonthly); v > 0 {
		return v
	}
	fromEntries := 0.0
	for _, e := range s.Incomes {
		fromEntries += netMonthlyIncome(e)
	}
	fromEntries += positive(s.SpouseNetIncome)
	if fromEntries > 0 {
		return fromEntries
	}
	return positive(s.IncomeNet)
}

// netMonthlyIncome converts one income entry to net CHF per month.
func netMonthlyIncome(e domain.IncomeEntry) float64 {
	amount := positive(e.Amount)
	if amount == 0 {
		return 0
	}
	monthly := amount * frequencyFactor(e.Frequency)
	switch e.AmountType.Normalized() {
	case "brut", "gross":
		if strings.Contains(e.EmploymentStatus.Normalized(), "indep") {
			monthly *= grossToNetSelfEmployed
		} else {
			monthly *= grossToNetEmployee
		}
	}
	if e.Thirteenth {
		monthly = monthly * 13 / monthsPerYear
	}
	return monthly
}

func resolveTaxReserve(s *domain.FinancialSnapshot) float64 {
	if v := positive(s.TaxReserveMonthly); v > 0 {
		return v
	}
	if v := positive(s.TaxReserveAnnual); v > 0 {
		return v / monthsPerYear
	}
	return positive(s.TaxReserve)
}

func sumMonthly(entries []domain.ExpenseEntry) float64 {
	total := 0.0
	for _, e := range entries {
		total += positive(e.Amount) * frequencyFactor(e.Frequency)
	}
	return total
}

// frequencyFactor maps a free-text frequency to its monthly multiplier.
// Unknown or missing frequencies are treated as monthly.
func frequencyFactor(freq domain.Text) float64 {
	f := freq.Normalized()
	switch {
	case strings.HasPrefix(f, "annu"):
		return 1.0 / monthsPerYear
	case strings.HasPrefix(f, "trim"):
		return 1.0 / 3
	case strings.HasPrefix(f, "hebdo"):
		return weeksPerYear / float64(monthsPerYear)
	default:
		return 1
	}
}

func explicitOr(explicit domain.Amount, fromEntries func() float64) float64 {
	if v := positive(explicit); v > 0 {
		return v
	}
	return fromEntries()
}

// positive returns a finite positive amount capped at MaxAmountCHF, or 0.
func positive(a domain.Amount) float64 {
	v := a.Float()
	if v <= 0 {
		return 0
	}
	return math.Min(v, MaxAmountCHF)
}

func clampAmount(v float64) float64 {
	return math.Max(-MaxAmountCHF, math.Min(v, MaxAmountCHF))
}
