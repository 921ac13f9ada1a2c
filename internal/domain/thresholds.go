package domain

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ThresholdOverrides carries optional replacements for the flag thresholds.
// A nil field keeps the default.
type ThresholdOverrides struct {
	SafetyCritical *float64 `json:"safetyCritical,omitempty"`
	SafetyLow      *float64 `json:"safetyLow,omitempty"`
	FixedHigh      *float64 `json:"fixedHigh,omitempty"`
	FixedMedium    *float64 `json:"fixedMedium,omitempty"`
	VariableHigh   *float64 `json:"variableHigh,omitempty"`
	VariableMedium *float64 `json:"variableMedium,omitempty"`
	DebtHigh       *float64 `json:"debtHigh,omitempty"`
	DebtMedium     *float64 `json:"debtMedium,omitempty"`
	TaxMedium      *float64 `json:"taxMedium,omitempty"`
}

// UnmarshalJSON keeps only the keys holding a finite, non-negative number
// (or a numeric string); everything else is left unset.
func (o *ThresholdOverrides) UnmarshalJSON(b []byte) error {
	*o = ThresholdOverrides{}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for key, v := range raw {
		f, ok := parseThreshold(v)
		if !ok {
			continue
		}
		o.set(key, f)
	}
	return nil
}

// IsZero reports whether no override is set.
func (o *ThresholdOverrides) IsZero() bool {
	return o == nil || *o == ThresholdOverrides{}
}

func (o *ThresholdOverrides) set(key string, v float64) {
	p := &v
	switch key {
	case "safetyCritical":
		o.SafetyCritical = p
	case "safetyLow":
		o.SafetyLow = p
	case "fixedHigh":
		o.FixedHigh = p
	case "fixedMedium":
		o.FixedMedium = p
	case "variableHigh":
		o.VariableHigh = p
	case "variableMedium":
		o.VariableMedium = p
	case "debtHigh":
		o.DebtHigh = p
	case "debtMedium":
		o.DebtMedium = p
	case "taxMedium":
		o.TaxMedium = p
	}
}

func parseThreshold(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func decodeThresholds(raw json.RawMessage) *ThresholdOverrides {
	if !isObject(raw) {
		return nil
	}
	var o ThresholdOverrides
	if err := json.Unmarshal(raw, &o); err != nil || o.IsZero() {
		return nil
	}
	return &o
}
