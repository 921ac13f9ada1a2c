package domain

// ============================================================
// Narrative (AI) layer
// ============================================================

// NarrativeRequest is the prompt context sent to the narrative service.
// It carries a summary of the analysis, never the raw snapshot.
type NarrativeRequest struct {
	UserID           string               `json:"user_id,omitempty"`
	Question         string               `json:"question,omitempty"`
	Metrics          NarrativeMetrics     `json:"metrics"`
	Flags            []Flag               `json:"flags"`
	TopIssues        []Flag               `json:"top_issues"`
	SuggestedActions []string             `json:"suggested_actions"`
	TopCategories    []CategoryAmount     `json:"top_categories,omitempty"`
	Warnings         []DataQualityWarning `json:"warnings"`
	MissingData      []string             `json:"missing_data"`
}

// NarrativeMetrics are the key figures the narrative may quote.
type NarrativeMetrics struct {
	IncomeNetMonthly       float64 `json:"income_net_monthly"`
	TotalExpensesMonthly   float64 `json:"total_expenses_monthly"`
	MonthlySavingsCapacity float64 `json:"monthly_savings_capacity"`
	SavingsRate            float64 `json:"savings_rate"`
	SafetyMonths           float64 `json:"safety_months"`
	FixedRatio             float64 `json:"fixed_ratio"`
	VariableRatio          float64 `json:"variable_ratio"`
	DebtRatio              float64 `json:"debt_ratio"`
	TaxRatio               float64 `json:"tax_ratio"`
}

// NarrativeResponse is what the narrative service returns.
type NarrativeResponse struct {
	Summary    string     `json:"summary"`
	Highlights []string   `json:"highlights,omitempty"`
	Confidence float64    `json:"confidence"`
	TokensUsed TokenUsage `json:"tokens_used"`
}

// TokenUsage tracks LLM token consumption for cost monitoring.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// InsightsRequest is the body of POST /v1/analysis/insights.
type InsightsRequest struct {
	UserID   string            `json:"userId,omitempty"`
	Question string            `json:"question,omitempty"`
	Snapshot FinancialSnapshot `json:"snapshot"`
}

// InsightsResponse pairs the deterministic analysis with its narrative.
type InsightsResponse struct {
	Analysis  *AnalysisResult    `json:"analysis"`
	Narrative *NarrativeResponse `json:"narrative"`
}
