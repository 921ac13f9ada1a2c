package service

import (
	"errors"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

// Missing-data labels quoted verbatim by the narrative service.
const (
	missingIncome         = "revenu net mensuel absent"
	missingExpenses       = "dépenses mensuelles totales absentes"
	missingCurrentSavings = "épargne actuelle inconnue"
)

// buildNarrativeRequest summarizes an analysis into the narrative prompt
// context.
func buildNarrativeRequest(req *domain.InsightsRequest, res *domain.AnalysisResult) *domain.NarrativeRequest {
	m := res.Metrics

	actions := make([]string, 0, len(res.SuggestedActions))
	for _, action := range res.SuggestedActions {
		actions = append(actions, action.Title)
	}

	categories := res.Breakdown.Categories
	if len(categories) > topCategoriesForNarrative {
		categories = categories[:topCategoriesForNarrative]
	}

	return &domain.NarrativeRequest{
		UserID:   req.UserID,
		Question: req.Question,
		Metrics: domain.NarrativeMetrics{
			IncomeNetMonthly:       m.IncomeNetMonthly,
			TotalExpensesMonthly:   m.TotalExpensesMonthly,
			MonthlySavingsCapacity: m.MonthlySavingsCapacity,
			SavingsRate:            m.SavingsRate,
			SafetyMonths:           m.SafetyMonths,
			FixedRatio:             m.FixedRatio,
			VariableRatio:          m.VariableRatio,
			DebtRatio:              m.DebtRatio,
			TaxRatio:               m.TaxRatio,
		},
		Flags:            res.Flags,
		TopIssues:        res.TopIssues,
		SuggestedActions: actions,
		TopCategories:    categories,
		Warnings:         res.DataQualityWarnings,
		MissingData:      missingData(res),
	}
}

func missingData(res *domain.AnalysisResult) []string {
	missing := []string{}
	for _, w := range res.DataQualityWarnings {
		switch w.ID {
		case domain.WarningIncomeMissing:
			missing = append(missing, missingIncome)
		case domain.WarningBaselineZero:
			missing = append(missing, missingExpenses)
		case domain.WarningCurrentSavingsMissing:
			missing = append(missing, missingCurrentSavings)
		}
	}
	return missing
}

func isNotFound(err error) bool {
	var notFound *domain.ErrNotFound
	return errors.As(err, &notFound)
}
