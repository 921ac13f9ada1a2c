package engine

import (
	"math"
	"testing"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFrequencyFactor(t *testing.T) {
	tests := []struct {
		freq   domain.Text
		amount float64
		want   float64
	}{
		{"annuel", 1200, 100},
		{"Annual", 1200, 100},
		{"trimestriel", 300, 100},
		{" TRIM ", 300, 100},
		{"hebdomadaire", 100, 100 * 52.0 / 12},
		{"mensuel", 100, 100},
		{"", 100, 100},
		{"every other tuesday", 100, 100},
	}

	for _, tt := range tests {
		got := tt.amount * frequencyFactor(tt.freq)
		if !approx(got, tt.want) {
			t.Errorf("frequency %q: expected %v, got %v", tt.freq, tt.want, got)
		}
	}
}

func TestSumMonthly_SkipsNonPositive(t *testing.T) {
	entries := []domain.ExpenseEntry{
		{Amount: 100},
		{Amount: -50},
		{Amount: 0},
		{Amount: domain.Amount(math.NaN())},
		{Amount: 1200, Frequency: "annuel"},
	}

	if got := sumMonthly(entries); !approx(got, 200) {
		t.Errorf("expected 200, got %v", got)
	}
}

func TestNetMonthlyIncome_GrossToNet(t *testing.T) {
	employee := domain.IncomeEntry{Amount: 6000, AmountType: "brut", EmploymentStatus: "employe"}
	if got := netMonthlyIncome(employee); !approx(got, 5160) {
		t.Errorf("employee: expected 5160, got %v", got)
	}

	selfEmployed := domain.IncomeEntry{Amount: 6000, AmountType: "brut", EmploymentStatus: "independant"}
	if got := netMonthlyIncome(selfEmployed); !approx(got, 4500) {
		t.Errorf("self-employed: expected 4500, got %v", got)
	}

	gross := domain.IncomeEntry{Amount: 6000, AmountType: "Gross"}
	if got := netMonthlyIncome(gross); !approx(got, 5160) {
		t.Errorf("gross alias: expected 5160, got %v", got)
	}

	net := domain.IncomeEntry{Amount: 6000, AmountType: "net", EmploymentStatus: "independant"}
	if got := netMonthlyIncome(net); !approx(got, 6000) {
		t.Errorf("net: expected 6000, got %v", got)
	}
}

func TestNetMonthlyIncome_Thirteenth(t *testing.T) {
	e := domain.IncomeEntry{Amount: 6000, AmountType: "net", Thirteenth: true}
	if got := netMonthlyIncome(e); !approx(got, 6500) {
		t.Errorf("expected 6500, got %v", got)
	}
}

func TestResolveIncome_Precedence(t *testing.T) {
	s := &domain.FinancialSnapshot{
		IncomeNetMonthly: 7000,
		Incomes:          []domain.IncomeEntry{{Amount: 5000}},
		IncomeNet:        4000,
	}
	if got := resolveIncome(s); got != 7000 {
		t.Errorf("explicit monthly: expected 7000, got %v", got)
	}

	s.IncomeNetMonthly = 0
	s.SpouseNetIncome = 1000
	if got := resolveIncome(s); got != 6000 {
		t.Errorf("entries + spouse: expected 6000, got %v", got)
	}

	s.Incomes = nil
	s.SpouseNetIncome = -500
	if got := resolveIncome(s); got != 4000 {
		t.Errorf("incomeNet fallback: expected 4000, got %v", got)
	}
}

func TestResolveIncome_NegativeSpouseIgnored(t *testing.T) {
	s := &domain.FinancialSnapshot{
		Incomes:         []domain.IncomeEntry{{Amount: 5000}},
		SpouseNetIncome: -800,
	}
	if got := resolveIncome(s); got != 5000 {
		t.Errorf("expected 5000, got %v", got)
	}
}

func TestResolveTaxReserve(t *testing.T) {
	tests := []struct {
		name string
		s    domain.FinancialSnapshot
		want float64
	}{
		{"monthly wins", domain.FinancialSnapshot{TaxReserveMonthly: 300, TaxReserveAnnual: 12000, TaxReserve: 50}, 300},
		{"annual", domain.FinancialSnapshot{TaxReserveAnnual: 2400, TaxReserve: 50}, 200},
		{"plain", domain.FinancialSnapshot{TaxReserve: 50}, 50},
		{"negative ignored", domain.FinancialSnapshot{TaxReserveMonthly: -100}, 0},
		{"none", domain.FinancialSnapshot{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveTaxReserve(&tt.s); !approx(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNormalize_ExplicitAggregatesWin(t *testing.T) {
	s := &domain.FinancialSnapshot{
		FixedExpensesMonthly: 1500,
		Expenses: domain.Expenses{
			Fixed:       []domain.ExpenseEntry{{Amount: 999}},
			Variable:    []domain.ExpenseEntry{{Amount: 400}},
			Exceptional: []domain.ExpenseEntry{{Amount: 50}},
		},
		ExceptionalAnnual: []domain.ExpenseEntry{{Amount: 600, Frequency: "annuel"}},
		Loans:             []domain.ExpenseEntry{{Amount: 250}},
	}

	n := normalize(s)
	if n.fixed != 1500 {
		t.Errorf("fixed: expected 1500, got %v", n.fixed)
	}
	if n.variable != 400 {
		t.Errorf("variable: expected 400, got %v", n.variable)
	}
	if !approx(n.exceptional, 100) {
		t.Errorf("exceptional: expected 100, got %v", n.exceptional)
	}
	if n.debt != 250 {
		t.Errorf("debt: expected 250, got %v", n.debt)
	}
}
