package engine

import "github.com/boddenberg/smartsave-bfa-go/internal/domain"

// Overview card identifiers.
const (
	CardIncomeBreakdown = "income-breakdown"
	CardSavingsCapacity = "savings-capacity"
	CardSecurity        = "security"
	CardDebts           = "debts"
)

func buildOverview(m domain.Metrics, bd domain.Breakdown, hasBreakdown bool) domain.Overview {
	return domain.Overview{
		Cards: []domain.OverviewCard{
			{
				ID:        CardIncomeBreakdown,
				Title:     "Répartition du revenu",
				Type:      "breakdown",
				Breakdown: &bd,
			},
			{
				ID:        CardSavingsCapacity,
				Title:     "Capacité d’épargne",
				Value:     ptr(m.MonthlySavingsCapacity),
				Label:     "CHF / mois",
				Formatted: formatSavingsCapacity(m.MonthlySavingsCapacity),
			},
			{
				ID:        CardSecurity,
				Title:     "Sécurité",
				Value:     ptr(m.SafetyMonths),
				Label:     "mois d’épargne",
				Formatted: formatMonths(m.SafetyMonths),
			},
			{
				ID:        CardDebts,
				Title:     "Dettes",
				Value:     ptr(m.DebtRatio),
				Label:     "% du revenu",
				Formatted: formatPercent(m.DebtRatio),
				Meta:      formatCHF(m.DebtPaymentsMonthly),
			},
		},
		HasBreakdown: hasBreakdown,
	}
}

func ptr(v float64) *float64 {
	return &v
}
