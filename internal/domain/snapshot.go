// Package domain defines the core entities of the spending-health service.
// These models are independent of external services and represent the
// canonical data structures used throughout the application.
package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ============================================================
// Financial snapshot (engine input)
// ============================================================

// FinancialSnapshot is the household data passed to one analysis call.
// It is the canonical form: every alias accepted on the wire is resolved
// once in UnmarshalJSON and never looked at again.
type FinancialSnapshot struct {
	Incomes         []IncomeEntry `json:"incomes,omitempty"`
	SpouseNetIncome Amount        `json:"spouseNetIncome,omitempty"`

	Expenses          Expenses       `json:"expenses"`
	ExceptionalAnnual []ExpenseEntry `json:"exceptionalAnnual,omitempty"`
	Loans             []ExpenseEntry `json:"loans,omitempty"`

	// Explicit monthly aggregates. A positive value wins over the entries.
	IncomeNetMonthly           Amount `json:"incomeNetMonthly,omitempty"`
	IncomeNet                  Amount `json:"incomeNet,omitempty"`
	FixedExpensesMonthly       Amount `json:"fixedExpensesMonthly,omitempty"`
	VariableExpensesMonthly    Amount `json:"variableExpensesMonthly,omitempty"`
	DebtPaymentsMonthly        Amount `json:"debtPaymentsMonthly,omitempty"`
	ExceptionalExpensesMonthly Amount `json:"exceptionalExpensesMonthly,omitempty"`

	TaxReserveMonthly Amount `json:"taxReserveMonthly,omitempty"`
	TaxReserveAnnual  Amount `json:"taxReserveAnnual,omitempty"`
	TaxReserve        Amount `json:"taxReserve,omitempty"`

	CurrentSavings        Amount `json:"currentSavings,omitempty"`
	CurrentAccountBalance Amount `json:"currentAccountBalance,omitempty"`
	InvestmentBalance     Amount `json:"investmentBalance,omitempty"`

	ExpenseBreakdownMonthly  map[string]Amount `json:"expenseBreakdownMonthly,omitempty"`
	FixedBreakdownMonthly    map[string]Amount `json:"fixedBreakdownMonthly,omitempty"`
	VariableBreakdownMonthly map[string]Amount `json:"variableBreakdownMonthly,omitempty"`

	AnalysisThresholds *ThresholdOverrides `json:"analysisThresholds,omitempty"`
}

// Expenses groups expense entries by kind.
type Expenses struct {
	Fixed       []ExpenseEntry `json:"fixed,omitempty"`
	Variable    []ExpenseEntry `json:"variable,omitempty"`
	Exceptional []ExpenseEntry `json:"exceptional,omitempty"`
}

// ExpenseEntry is one recurring outflow (expense or debt service).
type ExpenseEntry struct {
	Amount    Amount `json:"amount"`
	Frequency Text   `json:"frequency,omitempty"`
}

// IncomeEntry is one income source.
type IncomeEntry struct {
	Amount           Amount `json:"amount"`
	AmountType       Text   `json:"amountType,omitempty"` // net, gross/brut
	Frequency        Text   `json:"frequency,omitempty"`
	EmploymentStatus Text   `json:"employmentStatus,omitempty"`
	Thirteenth       YesNo  `json:"thirteenth,omitempty"`
}

// StoredSnapshot is a persisted point-in-time capture of a user's inputs.
type StoredSnapshot struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	CapturedAt time.Time         `json:"capturedAt"`
	Snapshot   FinancialSnapshot `json:"snapshot"`
}

// ============================================================
// Lenient scalar types
// ============================================================

// Text is a string field that tolerates numbers and booleans on the wire.
type Text string

// UnmarshalJSON never fails; unsupported values decode to "".
func (t *Text) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*t = ""
		return nil
	}
	switch v := raw.(type) {
	case string:
		*t = Text(v)
	case float64:
		*t = Text(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(v))
	default:
		*t = ""
	}
	return nil
}

// Normalized returns the lower-cased, trimmed value.
func (t Text) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(t)))
}

// YesNo decodes true, "oui", "true" and "yes" as true.
type YesNo bool

func (y *YesNo) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*y = false
		return nil
	}
	switch v := raw.(type) {
	case bool:
		*y = YesNo(v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "oui", "true", "yes":
			*y = true
		default:
			*y = false
		}
	default:
		*y = false
	}
	return nil
}

// ============================================================
// Wire decoding
// ============================================================

type snapshotWire struct {
	Incomes         json.RawMessage `json:"incomes"`
	SpouseIncome    Amount          `json:"spouseIncome"`
	SpouseNetIncome Amount          `json:"spouseNetIncome"`

	Expenses          json.RawMessage `json:"expenses"`
	ExceptionalAnnual json.RawMessage `json:"exceptionalAnnual"`
	Credits           json.RawMessage `json:"credits"`
	Loans             json.RawMessage `json:"loans"`

	IncomeNetMonthly           Amount `json:"incomeNetMonthly"`
	IncomeNet                  Amount `json:"incomeNet"`
	FixedExpensesMonthly       Amount `json:"fixedExpensesMonthly"`
	VariableExpensesMonthly    Amount `json:"variableExpensesMonthly"`
	DebtPaymentsMonthly        Amount `json:"debtPaymentsMonthly"`
	ExceptionalExpensesMonthly Amount `json:"exceptionalExpensesMonthly"`

	TaxReserveMonthly Amount `json:"taxReserveMonthly"`
	TaxReserveAnnual  Amount `json:"taxReserveAnnual"`
	TaxReserve        Amount `json:"taxReserve"`

	CurrentSavings        Amount `json:"currentSavings"`
	CurrentAccountBalance Amount `json:"currentAccountBalance"`
	InvestmentBalance     Amount `json:"investmentBalance"`

	ExpenseBreakdownMonthly  json.RawMessage `json:"expenseBreakdownMonthly"`
	Breakdown                json.RawMessage `json:"breakdown"`
	FixedBreakdownMonthly    json.RawMessage `json:"fixedBreakdownMonthly"`
	VariableBreakdownMonthly json.RawMessage `json:"variableBreakdownMonthly"`

	AnalysisThresholds json.RawMessage `json:"analysisThresholds"`
}

// UnmarshalJSON resolves the accepted aliases into the canonical fields.
// Only a top level that is not a JSON object is an error; malformed
// fields degrade to their zero value.
//
//	incomes            incomes[] | incomes.entries[] | single object
//	spouseNetIncome    incomes.spouseNetIncome > spouseIncome > spouseNetIncome
//	exceptionalAnnual  exceptionalAnnual > expenses.annualExtra
//	loans              credits.loans > loans
//	expenseBreakdown   expenseBreakdownMonthly > breakdown.expenses
func (s *FinancialSnapshot) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = FinancialSnapshot{}
		return nil
	}
	if trimmed[0] != '{' {
		return &ErrValidation{Field: "snapshot", Message: "must be a JSON object"}
	}

	var w snapshotWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return fmt.Errorf("decode financial snapshot: %w", err)
	}

	out := FinancialSnapshot{
		IncomeNetMonthly:           w.IncomeNetMonthly,
		IncomeNet:                  w.IncomeNet,
		FixedExpensesMonthly:       w.FixedExpensesMonthly,
		VariableExpensesMonthly:    w.VariableExpensesMonthly,
		DebtPaymentsMonthly:        w.DebtPaymentsMonthly,
		ExceptionalExpensesMonthly: w.ExceptionalExpensesMonthly,
		TaxReserveMonthly:          w.TaxReserveMonthly,
		TaxReserveAnnual:           w.TaxReserveAnnual,
		TaxReserve:                 w.TaxReserve,
		CurrentSavings:             w.CurrentSavings,
		CurrentAccountBalance:      w.CurrentAccountBalance,
		InvestmentBalance:          w.InvestmentBalance,
		FixedBreakdownMonthly:      decodeAmountMap(w.FixedBreakdownMonthly),
		VariableBreakdownMonthly:   decodeAmountMap(w.VariableBreakdownMonthly),
		AnalysisThresholds:         decodeThresholds(w.AnalysisThresholds),
	}

	var spouseFromIncomes Amount
	out.Incomes, spouseFromIncomes = decodeIncomes(w.Incomes)
	out.SpouseNetIncome = firstNonZero(spouseFromIncomes, w.SpouseIncome, w.SpouseNetIncome)

	var annualExtra json.RawMessage
	if isObject(w.Expenses) {
		var exp struct {
			Fixed       json.RawMessage `json:"fixed"`
			Variable    json.RawMessage `json:"variable"`
			Exceptional json.RawMessage `json:"exceptional"`
			AnnualExtra json.RawMessage `json:"annualExtra"`
		}
		if err := json.Unmarshal(w.Expenses, &exp); err == nil {
			out.Expenses = Expenses{
				Fixed:       decodeList[ExpenseEntry](exp.Fixed),
				Variable:    decodeList[ExpenseEntry](exp.Variable),
				Exceptional: decodeList[ExpenseEntry](exp.Exceptional),
			}
			annualExtra = exp.AnnualExtra
		}
	}
	out.ExceptionalAnnual = decodeList[ExpenseEntry](firstPresent(w.ExceptionalAnnual, annualExtra))

	var creditLoans json.RawMessage
	if isObject(w.Credits) {
		var credits struct {
			Loans json.RawMessage `json:"loans"`
		}
		if err := json.Unmarshal(w.Credits, &credits); err == nil {
			creditLoans = credits.Loans
		}
	}
	out.Loans = decodeList[ExpenseEntry](firstPresent(creditLoans, w.Loans))

	var breakdownExpenses json.RawMessage
	if isObject(w.Breakdown) {
		var bd struct {
			Expenses json.RawMessage `json:"expenses"`
		}
		if err := json.Unmarshal(w.Breakdown, &bd); err == nil {
			breakdownExpenses = bd.Expenses
		}
	}
	out.ExpenseBreakdownMonthly = decodeAmountMap(firstPresent(w.ExpenseBreakdownMonthly, breakdownExpenses))

	*s = out
	return nil
}

// UnmarshalJSON resolves amount > montant and frequency > frequence.
func (e *ExpenseEntry) UnmarshalJSON(b []byte) error {
	var w struct {
		Amount    Amount `json:"amount"`
		Montant   Amount `json:"montant"`
		Frequency Text   `json:"frequency"`
		Frequence Text   `json:"frequence"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	e.Amount = firstNonZero(w.Amount, w.Montant)
	e.Frequency = firstText(w.Frequency, w.Frequence)
	return nil
}

// UnmarshalJSON resolves amount > montant and frequency > frequence.
func (e *IncomeEntry) UnmarshalJSON(b []byte) error {
	var w struct {
		Amount           Amount `json:"amount"`
		Montant          Amount `json:"montant"`
		AmountType       Text   `json:"amountType"`
		Frequency        Text   `json:"frequency"`
		Frequence        Text   `json:"frequence"`
		EmploymentStatus Text   `json:"employmentStatus"`
		Thirteenth       YesNo  `json:"thirteenth"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = IncomeEntry{
		Amount:           firstNonZero(w.Amount, w.Montant),
		AmountType:       w.AmountType,
		Frequency:        firstText(w.Frequency, w.Frequence),
		EmploymentStatus: w.EmploymentStatus,
		Thirteenth:       w.Thirteenth,
	}
	return nil
}

func decodeIncomes(raw json.RawMessage) ([]IncomeEntry, Amount) {
	if !isObject(raw) {
		return decodeList[IncomeEntry](raw), 0
	}
	var wrapper struct {
		Entries         json.RawMessage `json:"entries"`
		SpouseNetIncome Amount          `json:"spouseNetIncome"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, 0
	}
	if isPresent(wrapper.Entries) {
		return decodeList[IncomeEntry](wrapper.Entries), wrapper.SpouseNetIncome
	}
	// a bare object is a single income entry
	return decodeList[IncomeEntry](raw), wrapper.SpouseNetIncome
}

// decodeList accepts an array or a single object. Elements that fail to
// decode are dropped.
func decodeList[T any](raw json.RawMessage) []T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '{':
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil
		}
		return []T{item}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		out := make([]T, 0, len(items))
		for _, it := range items {
			if !isObject(it) {
				continue
			}
			var item T
			if err := json.Unmarshal(it, &item); err != nil {
				continue
			}
			out = append(out, item)
		}
		return out
	default:
		return nil
	}
}

func decodeAmountMap(raw json.RawMessage) map[string]Amount {
	if !isObject(raw) {
		return nil
	}
	var m map[string]Amount
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isPresent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func firstPresent(candidates ...json.RawMessage) json.RawMessage {
	for _, c := range candidates {
		if isPresent(c) {
			return c
		}
	}
	return nil
}

func firstNonZero(values ...Amount) Amount {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstText(values ...Text) Text {
	for _, v := range values {
		if strings.TrimSpace(string(v)) != "" {
			return v
		}
	}
	return ""
}
