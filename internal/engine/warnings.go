package engine

import "github.com/boddenberg/smartsave-bfa-go/internal/domain"

// dataQualityWarnings reports figures that are zero because data is missing.
// They are advisory and independent of the flags.
func dataQualityWarnings(m domain.Metrics, currentSavings float64) []domain.DataQualityWarning {
	warnings := make([]domain.DataQualityWarning, 0, 3)
	if m.IncomeNetMonthly == 0 {
		warnings = append(warnings, domain.DataQualityWarning{
			ID:      domain.WarningIncomeMissing,
			Message: "Le revenu net mensuel est manquant ou nul, certains ratios sont impossibles à calculer.",
		})
	}
	if m.BaselineMonthly == 0 {
		warnings = append(warnings, domain.DataQualityWarning{
			ID:      domain.WarningBaselineZero,
			Message: "Les dépenses fixes et variables sont vides, impossible d’évaluer la sécurité réelle.",
		})
	}
	if currentSavings == 0 {
		warnings = append(warnings, domain.DataQualityWarning{
			ID:      domain.WarningCurrentSavingsMissing,
			Message: "L’épargne de sécurité n’est pas renseignée, les mois de couverture peuvent être sous-estimés.",
		})
	}
	return warnings
}
