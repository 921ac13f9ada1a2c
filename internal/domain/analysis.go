package domain

// ============================================================
// Spending analysis result
// ============================================================

// Severity ranks a flag.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities: critical > high > medium > low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Flag identifiers emitted by the engine.
const (
	FlagBudgetNegative  = "budget-negative"
	FlagSafetyCritical  = "safety-critical"
	FlagSafetyLow       = "safety-low"
	FlagFixedTooHigh    = "fixed-too-high"
	FlagFixedMedium     = "fixed-med"
	FlagVariableTooHigh = "variable-too-high"
	FlagVariableMedium  = "variable-med"
	FlagDebtTooHigh     = "debt-too-high"
	FlagDebtMedium      = "debt-med"
	FlagTaxHeavy        = "tax-heavy"
)

// AllFlagIDs lists every flag id in evaluation order.
var AllFlagIDs = []string{
	FlagBudgetNegative,
	FlagSafetyCritical,
	FlagSafetyLow,
	FlagFixedTooHigh,
	FlagFixedMedium,
	FlagVariableTooHigh,
	FlagVariableMedium,
	FlagDebtTooHigh,
	FlagDebtMedium,
	FlagTaxHeavy,
}

// Data-quality warning identifiers.
const (
	WarningIncomeMissing         = "income-missing"
	WarningBaselineZero          = "baseline-zero"
	WarningCurrentSavingsMissing = "current-savings-missing"
)

// AllWarningIDs lists every data-quality warning id.
var AllWarningIDs = []string{
	WarningIncomeMissing,
	WarningBaselineZero,
	WarningCurrentSavingsMissing,
}

// AnalysisResult is the full spending-health report for one snapshot.
// It has no identity beyond the call that produced it.
type AnalysisResult struct {
	Metrics             Metrics              `json:"metrics"`
	Flags               []Flag               `json:"flags"`
	TopIssues           []Flag               `json:"topIssues"`
	Impacts             Impacts              `json:"impacts"`
	Snapshot            Overview             `json:"snapshot"`
	SuggestedActions    []SuggestedAction    `json:"suggestedActions"`
	DataQualityWarnings []DataQualityWarning `json:"dataQualityWarnings"`
	Breakdown           CategoryBreakdown    `json:"breakdown"`
	Savings             SavingsBalances      `json:"savings"`
}

// Metrics are the normalized monthly figures and ratios.
type Metrics struct {
	IncomeNetMonthly           float64 `json:"incomeNetMonthly"`
	FixedExpensesMonthly       float64 `json:"fixedExpensesMonthly"`
	VariableExpensesMonthly    float64 `json:"variableExpensesMonthly"`
	DebtPaymentsMonthly        float64 `json:"debtPaymentsMonthly"`
	TaxReserveMonthly          float64 `json:"taxReserveMonthly"`
	ExceptionalExpensesMonthly float64 `json:"exceptionalExpensesMonthly"`
	TotalExpensesMonthly       float64 `json:"totalExpensesMonthly"`
	MonthlySavingsCapacity     float64 `json:"monthlySavingsCapacity"`
	FixedRatio                 float64 `json:"fixedRatio"`
	VariableRatio              float64 `json:"variableRatio"`
	DebtRatio                  float64 `json:"debtRatio"`
	TaxRatio                   float64 `json:"taxRatio"`
	ExceptionalRatio           float64 `json:"exceptionalRatio"`
	SavingsRate                float64 `json:"savingsRate"`
	LeftoverAfterFixedDebtTax  float64 `json:"leftoverAfterFixedDebtTax"`
	BaselineMonthly            float64 `json:"baselineMonthly"`
	SafetyMonths               float64 `json:"safetyMonths"`
}

// Flag is a severity-tagged finding. Flags are recomputed on every call.
type Flag struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Metric      string   `json:"metric"`
	Value       float64  `json:"value"`
	Threshold   float64  `json:"threshold"`
}

// Impacts are what-if figures in whole CHF.
type Impacts struct {
	VariableCut10CHF        int64 `json:"variableCut10CHF"`
	VariableCut15CHF        int64 `json:"variableCut15CHF"`
	NeedForSafety1MonthCHF  int64 `json:"needForSafety1MonthCHF"`
	NeedForSafety3MonthsCHF int64 `json:"needForSafety3MonthsCHF"`
	NeedForSafety6MonthsCHF int64 `json:"needForSafety6MonthsCHF"`
	// MonthsToSafety3 is nil when savings capacity is not positive.
	MonthsToSafety3   *int  `json:"monthsToSafety3"`
	MonthlyDeficitCHF int64 `json:"monthlyDeficitCHF"`
}

// SuggestedAction is a corrective step derived from flags and impacts.
type SuggestedAction struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// DataQualityWarning signals that a figure is unreliable rather than truly zero.
type DataQualityWarning struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SavingsBalances echoes the point-in-time balances used by the analysis.
type SavingsBalances struct {
	CurrentSavings        float64 `json:"currentSavings"`
	CurrentAccountBalance float64 `json:"currentAccountBalance"`
	InvestmentBalance     float64 `json:"investmentBalance"`
}

// ============================================================
// Breakdown
// ============================================================

// BreakdownKind tags which constructor built a Breakdown.
type BreakdownKind string

const (
	BreakdownTopCategories BreakdownKind = "topCategories"
	BreakdownFallback      BreakdownKind = "fallback"
)

// Breakdown is the display split of the monthly income. Build it with
// NewTopCategoriesBreakdown or NewFallbackBreakdown.
type Breakdown struct {
	Kind    BreakdownKind    `json:"type"`
	Entries []BreakdownEntry `json:"entries"`
}

// BreakdownEntry is one labelled slice of a Breakdown.
type BreakdownEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// NewTopCategoriesBreakdown builds the variant derived from caller categories.
func NewTopCategoriesBreakdown(entries []BreakdownEntry) Breakdown {
	return Breakdown{Kind: BreakdownTopCategories, Entries: entries}
}

// NewFallbackBreakdown builds the fixed-bucket variant.
func NewFallbackBreakdown(entries []BreakdownEntry) Breakdown {
	return Breakdown{Kind: BreakdownFallback, Entries: entries}
}

// CategoryAmount is a labelled monthly amount from a caller category map.
type CategoryAmount struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// CategoryBreakdown lists caller categories sorted by amount, descending.
type CategoryBreakdown struct {
	Categories              []CategoryAmount `json:"categories"`
	Fixed                   []CategoryAmount `json:"fixed"`
	Variable                []CategoryAmount `json:"variable"`
	LargestCategory         *CategoryAmount  `json:"largestCategory"`
	LargestFixedCategory    *CategoryAmount  `json:"largestFixedCategory"`
	LargestVariableCategory *CategoryAmount  `json:"largestVariableCategory"`
}

// ============================================================
// Overview cards
// ============================================================

// Overview is the display-ready summary of an analysis.
type Overview struct {
	Cards        []OverviewCard `json:"cards"`
	HasBreakdown bool           `json:"hasBreakdown"`
}

// OverviewCard is one tile of the overview.
type OverviewCard struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Type      string     `json:"type,omitempty"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
	Value     *float64   `json:"value,omitempty"`
	Label     string     `json:"label,omitempty"`
	Formatted string     `json:"formatted,omitempty"`
	Meta      string     `json:"meta,omitempty"`
}
