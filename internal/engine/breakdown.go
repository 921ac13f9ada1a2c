package engine

import (
	"sort"
	"strings"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

const topCategoryCount = 5

// Breakdown labels.
const (
	LabelOthers      = "Autres"
	LabelFixed       = "Fixes"
	LabelVariable    = "Variables"
	LabelExceptional = "Exceptionnelles"
	LabelDebts       = "Dettes"
	LabelTaxes       = "Impôts"
	LabelSavings     = "Capacité d’épargne"
)

// categoryList is a caller category map with non-positive entries dropped,
// sorted by amount descending then label.
type categoryList []domain.CategoryAmount

func categorize(m map[string]domain.Amount) categoryList {
	out := make(categoryList, 0, len(m))
	for label, amount := range m {
		v := positive(amount)
		if v == 0 {
			continue
		}
		out = append(out, domain.CategoryAmount{Label: label, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func (c categoryList) largest() *domain.CategoryAmount {
	if len(c) == 0 {
		return nil
	}
	first := c[0]
	return &first
}

func buildCategoryBreakdown(s *domain.FinancialSnapshot, expenses categoryList) domain.CategoryBreakdown {
	fixed := categorize(s.FixedBreakdownMonthly)
	variable := categorize(s.VariableBreakdownMonthly)
	return domain.CategoryBreakdown{
		Categories:              expenses,
		Fixed:                   fixed,
		Variable:                variable,
		LargestCategory:         expenses.largest(),
		LargestFixedCategory:    fixed.largest(),
		LargestVariableCategory: variable.largest(),
	}
}

// buildBreakdown prefers the caller's categories and falls back to the
// fixed five buckets when none carry a positive amount.
func buildBreakdown(m domain.Metrics, categories categoryList) domain.Breakdown {
	if len(categories) == 0 {
		return fallbackBreakdown(m)
	}

	n := min(topCategoryCount, len(categories))
	entries := make([]domain.BreakdownEntry, 0, n+5)
	seen := make(map[string]struct{}, n+5)
	for _, c := range categories[:n] {
		entries = append(entries, domain.BreakdownEntry{Label: c.Label, Value: c.Amount})
		seen[normalizeLabel(c.Label)] = struct{}{}
	}

	others := 0.0
	for _, c := range categories[n:] {
		others += c.Amount
	}
	if others > 0 {
		entries = append(entries, domain.BreakdownEntry{Label: LabelOthers, Value: others})
		seen[normalizeLabel(LabelOthers)] = struct{}{}
	}

	appendIfMissing := func(label string, value float64) {
		if value <= 0 {
			return
		}
		key := normalizeLabel(label)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		entries = append(entries, domain.BreakdownEntry{Label: label, Value: value})
	}
	appendIfMissing(LabelDebts, m.DebtPaymentsMonthly)
	appendIfMissing(LabelExceptional, m.ExceptionalExpensesMonthly)
	appendIfMissing(LabelTaxes, m.TaxReserveMonthly)
	appendIfMissing(LabelSavings, m.MonthlySavingsCapacity)

	return domain.NewTopCategoriesBreakdown(entries)
}

func fallbackBreakdown(m domain.Metrics) domain.Breakdown {
	entries := []domain.BreakdownEntry{
		{Label: LabelFixed, Value: m.FixedExpensesMonthly},
		{Label: LabelVariable, Value: m.VariableExpensesMonthly},
		{Label: LabelExceptional, Value: m.ExceptionalExpensesMonthly},
		{Label: LabelDebts, Value: m.DebtPaymentsMonthly},
		{Label: LabelTaxes, Value: m.TaxReserveMonthly},
	}
	if m.MonthlySavingsCapacity > 0 {
		entries = append(entries, domain.BreakdownEntry{Label: LabelSavings, Value: m.MonthlySavingsCapacity})
	}
	return domain.NewFallbackBreakdown(entries)
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// normalizeLabel lower-cases, collapses whitespace and unifies apostrophes.
func normalizeLabel(label string) string {
	label = apostrophes.Replace(strings.ToLower(label))
	return strings.Join(strings.Fields(label), " ")
}
