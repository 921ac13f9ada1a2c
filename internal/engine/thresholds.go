package engine

import (
	"math"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

// Thresholds are the cut-offs the flag evaluator compares metrics against.
// Safety thresholds are in months, the others are ratios of net income.
type Thresholds struct {
	SafetyCritical float64
	SafetyLow      float64
	FixedHigh      float64
	FixedMedium    float64
	VariableHigh   float64
	VariableMedium float64
	DebtHigh       float64
	DebtMedium     float64
	TaxMedium      float64
}

// DefaultThresholds returns the built-in cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SafetyCritical: 1,
		SafetyLow:      3,
		FixedHigh:      0.55,
		FixedMedium:    0.40,
		VariableHigh:   0.35,
		VariableMedium: 0.25,
		DebtHigh:       0.20,
		DebtMedium:     0.10,
		TaxMedium:      0.15,
	}
}

// Apply returns a copy of t with every set override applied. Overrides that
// are not finite non-negative numbers are ignored.
func (t Thresholds) Apply(o *domain.ThresholdOverrides) Thresholds {
	if o == nil {
		return t
	}
	override(&t.SafetyCritical, o.SafetyCritical)
	override(&t.SafetyLow, o.SafetyLow)
	override(&t.FixedHigh, o.FixedHigh)
	override(&t.FixedMedium, o.FixedMedium)
	override(&t.VariableHigh, o.VariableHigh)
	override(&t.VariableMedium, o.VariableMedium)
	override(&t.DebtHigh, o.DebtHigh)
	override(&t.DebtMedium, o.DebtMedium)
	override(&t.TaxMedium, o.TaxMedium)
	return t
}

func override(dst *float64, v *float64) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return
	}
	*dst = *v
}
