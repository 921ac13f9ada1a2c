package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

// thresholdsFile is the on-disk layout of THRESHOLDS_FILE:
//
//	[thresholds]
//	safety_critical = 1.0
//	fixed_high = 0.5
type thresholdsFile struct {
	Thresholds struct {
		SafetyCritical *float64 `toml:"safety_critical"`
		SafetyLow      *float64 `toml:"safety_low"`
		FixedHigh      *float64 `toml:"fixed_high"`
		FixedMedium    *float64 `toml:"fixed_medium"`
		VariableHigh   *float64 `toml:"variable_high"`
		VariableMedium *float64 `toml:"variable_medium"`
		DebtHigh       *float64 `toml:"debt_high"`
		DebtMedium     *float64 `toml:"debt_medium"`
		TaxMedium      *float64 `toml:"tax_medium"`
	} `toml:"thresholds"`
}

// LoadThresholds reads threshold overrides from a TOML file. An empty path
// yields nil. Unknown keys are rejected so typos don't go unnoticed.
func LoadThresholds(path string) (*domain.ThresholdOverrides, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading thresholds: %w", err)
	}

	var file thresholdsFile
	meta, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, fmt.Errorf("parsing thresholds: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing thresholds: unknown keys %s", strings.Join(keys, ", "))
	}

	t := file.Thresholds
	for name, v := range map[string]*float64{
		"safety_critical": t.SafetyCritical,
		"safety_low":      t.SafetyLow,
		"fixed_high":      t.FixedHigh,
		"fixed_medium":    t.FixedMedium,
		"variable_high":   t.VariableHigh,
		"variable_medium": t.VariableMedium,
		"debt_high":       t.DebtHigh,
		"debt_medium":     t.DebtMedium,
		"tax_medium":      t.TaxMedium,
	} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("parsing thresholds: %s must not be negative", name)
		}
	}

	return &domain.ThresholdOverrides{
		SafetyCritical: t.SafetyCritical,
		SafetyLow:      t.SafetyLow,
		FixedHigh:      t.FixedHigh,
		FixedMedium:    t.FixedMedium,
		VariableHigh:   t.VariableHigh,
		VariableMedium: t.VariableMedium,
		DebtHigh:       t.DebtHigh,
		DebtMedium:     t.DebtMedium,
		TaxMedium:      t.TaxMedium,
	}, nil
}
