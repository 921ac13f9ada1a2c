// Package engine turns a household's financial snapshot into a
// spending-health report: normalized monthly figures, ratios, severity-ranked
// flags, what-if impacts, suggested actions and an expense breakdown.
//
// The engine is pure. It never returns an error and holds no state between
// calls, so a single Engine can be shared across goroutines.
package engine

import "github.com/boddenberg/smartsave-bfa-go/internal/domain"

// Engine analyzes snapshots against a fixed base set of thresholds.
type Engine struct {
	base Thresholds
}

// New builds an Engine. Per-snapshot analysisThresholds are applied on top
// of base.
func New(base Thresholds) *Engine {
	return &Engine{base: base}
}

var defaultEngine = New(DefaultThresholds())

// Analyze runs the default engine.
func Analyze(s *domain.FinancialSnapshot) *domain.AnalysisResult {
	return defaultEngine.Analyze(s)
}

// Thresholds returns the engine's base thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.base
}

// Analyze produces the full report for s. A nil snapshot is analyzed as empty.
func (e *Engine) Analyze(s *domain.FinancialSnapshot) *domain.AnalysisResult {
	if s == nil {
		s = &domain.FinancialSnapshot{}
	}
	thresholds := e.base.Apply(s.AnalysisThresholds)

	n := normalize(s)
	metrics := buildMetrics(n)

	flags := evaluateFlags(metrics, thresholds)
	impacts := computeImpacts(metrics, n.currentSavings)

	expenses := categorize(s.ExpenseBreakdownMonthly)
	breakdown := buildBreakdown(metrics, expenses)

	return &domain.AnalysisResult{
		Metrics:             metrics,
		Flags:               flags,
		TopIssues:           pickTopIssues(flags),
		Impacts:             impacts,
		Snapshot:            buildOverview(metrics, breakdown, len(expenses) > 0),
		SuggestedActions:    suggestActions(metrics, impacts, flags, thresholds),
		DataQualityWarnings: dataQualityWarnings(metrics, n.currentSavings),
		Breakdown:           buildCategoryBreakdown(s, expenses),
		Savings: domain.SavingsBalances{
			CurrentSavings:        n.currentSavings,
			CurrentAccountBalance: n.currentAccountBalance,
			InvestmentBalance:     n.investmentBalance,
		},
	}
}
