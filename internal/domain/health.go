package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual collaborator.
type ServiceHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"` // up, disabled
}

// AnalysisMetrics is returned by GET /v1/metrics/analysis.
type AnalysisMetrics struct {
	TotalAnalyses   int64            `json:"totalAnalyses"`
	FailedAnalyses  int64            `json:"failedAnalyses"`
	AvgLatencyMs    float64          `json:"avgLatencyMs"`
	CacheHitRate    float64          `json:"cacheHitRate"`
	FlagsFired      map[string]int64 `json:"flagsFired"`
	WarningsEmitted map[string]int64 `json:"warningsEmitted"`
	ExternalErrors  int64            `json:"externalErrors"`
	NarrativeTokens int64            `json:"narrativeTokens"`
	SnapshotsStored int64            `json:"snapshotsStored"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// BatchAnalysisRequest is the body of POST /v1/analysis/batch.
type BatchAnalysisRequest struct {
	Snapshots []FinancialSnapshot `json:"snapshots"`
}

// BatchAnalysisResponse keeps results in request order.
type BatchAnalysisResponse struct {
	Results []*AnalysisResult `json:"results"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
