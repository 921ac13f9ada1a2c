package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

const maxTopIssues = 2

// evaluateFlags applies the rule table. Within each tier pair (critical/low
// safety, high/medium ratio) at most one flag fires.
func evaluateFlags(m domain.Metrics, t Thresholds) []domain.Flag {
	flags := make([]domain.Flag, 0, 5)

	if m.MonthlySavingsCapacity < 0 {
		flags = append(flags, domain.Flag{
			ID:          domain.FlagBudgetNegative,
			Severity:    domain.SeverityCritical,
			Title:       "Budget négatif",
			Description: fmt.Sprintf("Tes dépenses dépassent tes revenus de %s.", formatCHF(math.Abs(m.MonthlySavingsCapacity))),
			Metric:      "monthlySavingsCapacity",
			Value:       m.MonthlySavingsCapacity,
			Threshold:   0,
		})
	}

	switch {
	case m.SafetyMonths < t.SafetyCritical:
		flags = append(flags, domain.Flag{
			ID:          domain.FlagSafetyCritical,
			Severity:    domain.SeverityCritical,
			Title:       "Sécurité très faible",
			Description: safetyCriticalDescription(t.SafetyCritical),
			Metric:      "safetyMonths",
			Value:       m.SafetyMonths,
			Threshold:   t.SafetyCritical,
		})
	case m.SafetyMonths < t.SafetyLow:
		flags = append(flags, domain.Flag{
			ID:          domain.FlagSafetyLow,
			Severity:    domain.SeverityHigh,
			Title:       "Sécurité fragile",
			Description: fmt.Sprintf("Tu es proche de la limite des %s mois de sécurité.", formatCount(t.SafetyLow)),
			Metric:      "safetyMonths",
			Value:       m.SafetyMonths,
			Threshold:   t.SafetyLow,
		})
	}

	switch {
	case m.FixedRatio > t.FixedHigh:
		flags = append(flags, ratioFlag(domain.FlagFixedTooHigh, domain.SeverityHigh, "Dépenses fixes lourdes",
			"Tes charges fixes dépassent %s de ton revenu net mensuel.", "fixedRatio", m.FixedRatio, t.FixedHigh))
	case m.FixedRatio > t.FixedMedium:
		flags = append(flags, ratioFlag(domain.FlagFixedMedium, domain.SeverityMedium, "Charges fixes importantes",
			"Tes dépenses fixes représentent plus de %s de ton revenu.", "fixedRatio", m.FixedRatio, t.FixedMedium))
	}

	switch {
	case m.VariableRatio > t.VariableHigh:
		flags = append(flags, ratioFlag(domain.FlagVariableTooHigh, domain.SeverityHigh, "Variables élevées",
			"Tes dépenses variables dépassent %s de ton revenu net.", "variableRatio", m.VariableRatio, t.VariableHigh))
	case m.VariableRatio > t.VariableMedium:
		flags = append(flags, ratioFlag(domain.FlagVariableMedium, domain.SeverityMedium, "Variables en hausse",
			"Les dépenses variables représentent plus de %s de ton revenu.", "variableRatio", m.VariableRatio, t.VariableMedium))
	}

	switch {
	case m.DebtRatio > t.DebtHigh:
		flags = append(flags, ratioFlag(domain.FlagDebtTooHigh, domain.SeverityHigh, "Dettes importantes",
			"Tu verses plus de %s de ton revenu au remboursement des dettes.", "debtRatio", m.DebtRatio, t.DebtHigh))
	case m.DebtRatio > t.DebtMedium:
		flags = append(flags, ratioFlag(domain.FlagDebtMedium, domain.SeverityMedium, "Dettes à surveiller",
			"Les remboursements représentent plus de %s de tes revenus.", "debtRatio", m.DebtRatio, t.DebtMedium))
	}

	if m.TaxRatio > t.TaxMedium {
		flags = append(flags, ratioFlag(domain.FlagTaxHeavy, domain.SeverityMedium, "Impôts lourds",
			"Les provisions fiscales dépassent %s de ton revenu net.", "taxRatio", m.TaxRatio, t.TaxMedium))
	}

	return flags
}

func ratioFlag(id string, sev domain.Severity, title, descFormat, metric string, value, threshold float64) domain.Flag {
	return domain.Flag{
		ID:          id,
		Severity:    sev,
		Title:       title,
		Description: fmt.Sprintf(descFormat, formatPercent(threshold)),
		Metric:      metric,
		Value:       value,
		Threshold:   threshold,
	}
}

func safetyCriticalDescription(threshold float64) string {
	if threshold == 1 {
		return "Tu n'as pas assez d'épargne pour couvrir un mois complet."
	}
	return fmt.Sprintf("Tu n'as pas assez d'épargne pour couvrir %s mois de dépenses.", formatCount(threshold))
}

// pickTopIssues returns at most two flags: budget-negative first, then by
// severity rank. Equal ranks keep evaluation order.
func pickTopIssues(flags []domain.Flag) []domain.Flag {
	sorted := make([]domain.Flag, len(flags))
	copy(sorted, flags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		aNeg, bNeg := a.ID == domain.FlagBudgetNegative, b.ID == domain.FlagBudgetNegative
		if aNeg != bNeg {
			return aNeg
		}
		return a.Severity.Rank() > b.Severity.Rank()
	})
	if len(sorted) > maxTopIssues {
		sorted = sorted[:maxTopIssues]
	}
	return sorted
}

func hasDebtFlag(flags []domain.Flag) bool {
	for _, f := range flags {
		if f.ID == domain.FlagDebtTooHigh || f.ID == domain.FlagDebtMedium {
			return true
		}
	}
	return false
}
