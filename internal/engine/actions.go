package engine

import (
	"fmt"
	"math"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

const (
	maxSuggestedActions = 3
	safetyTargetMonths  = 3
)

// Suggested action identifiers.
const (
	ActionRestoreBalance        = "restore-balance"
	ActionBuildSafety           = "build-safety"
	ActionTrimVariablesPriority = "trim-variables-priority"
	ActionTrimVariables         = "trim-variables"
	ActionPlanDebt              = "plan-debt"
	ActionReserveTax            = "reserve-tax"
)

// suggestActions builds the gated actions in fixed priority order and keeps
// the first three.
func suggestActions(m domain.Metrics, impacts domain.Impacts, flags []domain.Flag, t Thresholds) []domain.SuggestedAction {
	actions := make([]domain.SuggestedAction, 0, maxSuggestedActions)

	if m.MonthlySavingsCapacity < 0 {
		actions = append(actions, domain.SuggestedAction{
			ID:     ActionRestoreBalance,
			Title:  "Ramener le budget à l’équilibre",
			Detail: fmt.Sprintf("Réduis ou décale %s de dépenses pour limiter le déficit.", formatCHF(math.Abs(m.MonthlySavingsCapacity))),
		})
	}

	if m.SafetyMonths < safetyTargetMonths {
		actions = append(actions, domain.SuggestedAction{
			ID:     ActionBuildSafety,
			Title:  fmt.Sprintf("Atteindre %d mois de sécurité", safetyTargetMonths),
			Detail: fmt.Sprintf("Il manque %s pour atteindre %d mois d’épargne.", formatCHF(float64(impacts.NeedForSafety3MonthsCHF)), safetyTargetMonths),
		})
	}

	switch {
	case m.VariableRatio > t.VariableHigh:
		actions = append(actions, domain.SuggestedAction{
			ID:     ActionTrimVariablesPriority,
			Title:  "Réduire rapidement les variables",
			Detail: fmt.Sprintf("Un ajustement ciblé des variables pourrait libérer %s par mois.", formatCHF(float64(impacts.VariableCut15CHF))),
		})
	case m.VariableRatio > t.VariableMedium:
		actions = append(actions, domain.SuggestedAction{
			ID:     ActionTrimVariables,
			Title:  "Tester une réduction des dépenses variables",
			Detail: fmt.Sprintf("Une baisse de 10%% libérerait %s mensuels.", formatCHF(float64(impacts.VariableCut10CHF))),
		})
	}

	if hasDebtFlag(flags) && m.DebtRatio > t.DebtMedium {
		actions = append(actions, domain.SuggestedAction{
			ID:     ActionPlanDebt,
			Title:  "Planifier la réduction des dettes",
			Detail: "Priorise les dettes les plus coûteuses et augmente progressivement les mensualités.",
		})
	}

	if m.TaxReserveMonthly > 0 {
		actions = append(actions, domain.SuggestedAction{
			ID:     ActionReserveTax,
			Title:  "Réserver les impôts automatiquement",
			Detail: "Intègre la provision fiscale dans ton plan SmartSave pour éviter les surprises.",
		})
	}

	if len(actions) > maxSuggestedActions {
		actions = actions[:maxSuggestedActions]
	}
	return actions
}
