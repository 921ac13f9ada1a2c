package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/observability"
)

func TestMetrics_AnalysisSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	res := &domain.AnalysisResult{
		Flags: []domain.Flag{
			{ID: domain.FlagSafetyCritical, Severity: domain.SeverityCritical},
			{ID: domain.FlagTaxHeavy, Severity: domain.SeverityMedium},
		},
		DataQualityWarnings: []domain.DataQualityWarning{{ID: domain.WarningCurrentSavingsMissing}},
	}
	m.RecordAnalysis(2*time.Millisecond, res)
	m.RecordAnalysis(4*time.Millisecond, &domain.AnalysisResult{})
	m.IncrAnalysisFailure()
	m.IncrCacheHit(observability.AnalysisCache)
	m.IncrCacheMiss(observability.AnalysisCache)
	m.IncrCacheMiss(observability.AnalysisCache)
	m.IncrCacheMiss(observability.AnalysisCache)
	m.IncrExternalError("narrative")
	m.RecordTokens(100, 50)
	m.IncrSnapshotStored()

	snap := m.GetAnalysisSnapshot()
	if snap.TotalAnalyses != 2 {
		t.Errorf("expected 2 analyses, got %d", snap.TotalAnalyses)
	}
	if snap.FailedAnalyses != 1 {
		t.Errorf("expected 1 failure, got %d", snap.FailedAnalyses)
	}
	if snap.CacheHitRate != 0.25 {
		t.Errorf("expected hit rate 0.25, got %v", snap.CacheHitRate)
	}
	if snap.AvgLatencyMs < 2.9 || snap.AvgLatencyMs > 3.1 {
		t.Errorf("expected avg latency ~3ms, got %v", snap.AvgLatencyMs)
	}
	if snap.FlagsFired[domain.FlagSafetyCritical] != 1 || snap.FlagsFired[domain.FlagBudgetNegative] != 0 {
		t.Errorf("unexpected flag counts: %v", snap.FlagsFired)
	}
	if len(snap.FlagsFired) != len(domain.AllFlagIDs) {
		t.Errorf("expected every flag id to be reported, got %d", len(snap.FlagsFired))
	}
	if snap.WarningsEmitted[domain.WarningCurrentSavingsMissing] != 1 {
		t.Errorf("unexpected warning counts: %v", snap.WarningsEmitted)
	}
	if snap.ExternalErrors != 1 || snap.NarrativeTokens != 150 || snap.SnapshotsStored != 1 {
		t.Errorf("unexpected external/tokens/snapshots: %+v", snap)
	}
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.IncrAnalysisFailure()
	if b.GetAnalysisSnapshot().FailedAnalyses != 0 {
		t.Error("registries must not share state")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "nonsense", ""} {
		if observability.NewLogger(lvl) == nil {
			t.Errorf("nil logger for level %q", lvl)
		}
	}
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := observability.InitTracer("", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}
