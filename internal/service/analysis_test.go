package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/engine"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/cache"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/observability"
	"github.com/boddenberg/smartsave-bfa-go/internal/port"
	"github.com/boddenberg/smartsave-bfa-go/internal/service"
)

// --- Mocks ---

type mockStore struct {
	mu      sync.Mutex
	latest  *domain.StoredSnapshot
	saved   []*domain.StoredSnapshot
	err     error
	pingErr error
}

func (m *mockStore) GetLatestSnapshot(_ context.Context, userID string) (*domain.StoredSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.latest == nil {
		return nil, &domain.ErrNotFound{Resource: "snapshot", ID: userID}
	}
	return m.latest, nil
}

func (m *mockStore) SaveSnapshot(_ context.Context, s *domain.StoredSnapshot) (*domain.StoredSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
	return s, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.pingErr
}

type mockNarrator struct {
	response *domain.NarrativeResponse
	err      error
	got      *domain.NarrativeRequest
}

func (m *mockNarrator) Narrate(_ context.Context, req *domain.NarrativeRequest) (*domain.NarrativeResponse, error) {
	m.got = req
	return m.response, m.err
}

// --- Helpers ---

func newService(store *mockStore, narrator *mockNarrator) (*service.Analysis, *observability.Metrics) {
	metrics := observability.NewMetrics()

	// typed nils must reach the service as nil interfaces
	var (
		s port.SnapshotStore
		n port.NarrativeCaller
	)
	if store != nil {
		s = store
	}
	if narrator != nil {
		n = narrator
	}

	svc := service.NewAnalysis(
		engine.New(engine.DefaultThresholds()),
		s,
		n,
		cache.New[*domain.AnalysisResult](5*time.Minute, 100),
		metrics,
		zap.NewNop(),
		4,
	)
	return svc, metrics
}

func tightBudget() *domain.FinancialSnapshot {
	return &domain.FinancialSnapshot{
		IncomeNetMonthly:        6000,
		FixedExpensesMonthly:    2000,
		VariableExpensesMonthly: 1200,
		CurrentSavings:          1500,
		ExpenseBreakdownMonthly: map[string]domain.Amount{
			"Loyer":   1500,
			"Courses": 700,
		},
	}
}

// --- Tests ---

func TestAnalyze_CachesByFingerprint(t *testing.T) {
	svc, metrics := newService(nil, nil)

	first, err := svc.Analyze(context.Background(), tightBudget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Analyze(context.Background(), tightBudget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("identical snapshots should be served from cache")
	}

	snap := metrics.GetAnalysisSnapshot()
	if snap.TotalAnalyses != 1 {
		t.Errorf("expected 1 engine run, got %d", snap.TotalAnalyses)
	}
	if snap.CacheHitRate != 0.5 {
		t.Errorf("expected cache hit rate 0.5, got %v", snap.CacheHitRate)
	}

	other := tightBudget()
	other.CurrentSavings = 20000
	third, _ := svc.Analyze(context.Background(), other)
	if third == first {
		t.Error("different snapshots must not share a cache entry")
	}
}

func TestAnalyze_NilSnapshot(t *testing.T) {
	svc, _ := newService(nil, nil)

	res, err := svc.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.DataQualityWarnings) != 3 {
		t.Errorf("expected 3 warnings for an empty snapshot, got %d", len(res.DataQualityWarnings))
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	svc, _ := newService(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Analyze(ctx, tightBudget()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeBatch_KeepsOrder(t *testing.T) {
	svc, _ := newService(nil, nil)

	snapshots := make([]domain.FinancialSnapshot, 20)
	for i := range snapshots {
		snapshots[i] = domain.FinancialSnapshot{
			IncomeNetMonthly:     domain.Amount(1000 * (i + 1)),
			FixedExpensesMonthly: 500,
		}
	}

	results, err := svc.AnalyzeBatch(context.Background(), snapshots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(snapshots) {
		t.Fatalf("expected %d results, got %d", len(snapshots), len(results))
	}
	for i, res := range results {
		if want := float64(1000 * (i + 1)); res.Metrics.IncomeNetMonthly != want {
			t.Errorf("result %d: expected income %v, got %v", i, want, res.Metrics.IncomeNetMonthly)
		}
	}
}

func TestAnalyzeBatch_TooLarge(t *testing.T) {
	svc, _ := newService(nil, nil)

	_, err := svc.AnalyzeBatch(context.Background(), make([]domain.FinancialSnapshot, service.MaxBatchSize+1))
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAnalyzeBatch_Empty(t *testing.T) {
	svc, _ := newService(nil, nil)

	results, err := svc.AnalyzeBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
}

func TestSaveSnapshot_Success(t *testing.T) {
	store := &mockStore{}
	svc, metrics := newService(store, nil)

	saved, err := svc.SaveSnapshot(context.Background(), "  user-1 ", tightBudget())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.UserID != "user-1" {
		t.Errorf("expected trimmed user id, got %q", saved.UserID)
	}
	if _, err := uuid.Parse(saved.ID); err != nil {
		t.Errorf("expected a UUID record id, got %q", saved.ID)
	}
	if saved.CapturedAt.IsZero() || saved.CapturedAt.Location() != time.UTC {
		t.Errorf("expected a UTC capture time, got %v", saved.CapturedAt)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(store.saved))
	}
	if got := metrics.GetAnalysisSnapshot().SnapshotsStored; got != 1 {
		t.Errorf("expected 1 stored snapshot in metrics, got %d", got)
	}
}

func TestSaveSnapshot_Validation(t *testing.T) {
	svc, _ := newService(&mockStore{}, nil)

	_, err := svc.SaveSnapshot(context.Background(), "   ", tightBudget())
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) || validation.Field != "userId" {
		t.Fatalf("expected ErrValidation on userId, got %v", err)
	}
}

func TestSnapshotOperations_StoreDisabled(t *testing.T) {
	svc, _ := newService(nil, nil)

	var unavailable *domain.ErrUnavailable
	if _, err := svc.SaveSnapshot(context.Background(), "u", tightBudget()); !errors.As(err, &unavailable) {
		t.Errorf("SaveSnapshot: expected ErrUnavailable, got %v", err)
	}
	if _, err := svc.GetSnapshot(context.Background(), "u"); !errors.As(err, &unavailable) {
		t.Errorf("GetSnapshot: expected ErrUnavailable, got %v", err)
	}
	if _, err := svc.AnalyzeStored(context.Background(), "u"); !errors.As(err, &unavailable) {
		t.Errorf("AnalyzeStored: expected ErrUnavailable, got %v", err)
	}
}

func TestGetSnapshot_NotFound(t *testing.T) {
	svc, metrics := newService(&mockStore{}, nil)

	_, err := svc.GetSnapshot(context.Background(), "ghost")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := metrics.GetAnalysisSnapshot().ExternalErrors; got != 0 {
		t.Errorf("not found must not count as an external error, got %d", got)
	}
}

func TestGetSnapshot_StoreError(t *testing.T) {
	storeErr := &domain.ErrExternalService{Service: "supabase", Err: errors.New("boom")}
	svc, metrics := newService(&mockStore{err: storeErr}, nil)

	_, err := svc.GetSnapshot(context.Background(), "u")
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if got := metrics.GetAnalysisSnapshot().ExternalErrors; got != 1 {
		t.Errorf("expected 1 external error, got %d", got)
	}
}

func TestAnalyzeStored(t *testing.T) {
	store := &mockStore{latest: &domain.StoredSnapshot{
		ID:       "s1",
		UserID:   "u",
		Snapshot: *tightBudget(),
	}}
	svc, _ := newService(store, nil)

	res, err := svc.AnalyzeStored(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Impacts.NeedForSafety3MonthsCHF != 8100 {
		t.Errorf("expected need3 8100, got %d", res.Impacts.NeedForSafety3MonthsCHF)
	}
}

func TestInsights_Success(t *testing.T) {
	narrator := &mockNarrator{response: &domain.NarrativeResponse{
		Summary:    "Ta sécurité est trop faible.",
		Confidence: 0.9,
		TokensUsed: domain.TokenUsage{PromptTokens: 300, CompletionTokens: 100, TotalTokens: 400},
	}}
	svc, metrics := newService(nil, narrator)

	resp, err := svc.Insights(context.Background(), &domain.InsightsRequest{
		UserID:   "u",
		Question: "Comment épargner plus ?",
		Snapshot: *tightBudget(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Narrative.Summary != "Ta sécurité est trop faible." {
		t.Errorf("unexpected narrative: %+v", resp.Narrative)
	}
	if resp.Analysis == nil || resp.Analysis.Metrics.IncomeNetMonthly != 6000 {
		t.Fatalf("unexpected analysis: %+v", resp.Analysis)
	}

	got := narrator.got
	if got == nil {
		t.Fatal("narrator was not called")
	}
	if got.Question != "Comment épargner plus ?" || got.Metrics.IncomeNetMonthly != 6000 {
		t.Errorf("unexpected narrative context: %+v", got)
	}
	if len(got.SuggestedActions) != len(resp.Analysis.SuggestedActions) {
		t.Errorf("expected %d action titles, got %d", len(resp.Analysis.SuggestedActions), len(got.SuggestedActions))
	}
	if len(got.TopCategories) != 2 || got.TopCategories[0].Label != "Loyer" {
		t.Errorf("unexpected top categories: %+v", got.TopCategories)
	}
	if len(got.MissingData) != 0 {
		t.Errorf("expected no missing data, got %v", got.MissingData)
	}
	if tokens := metrics.GetAnalysisSnapshot().NarrativeTokens; tokens != 400 {
		t.Errorf("expected 400 tokens recorded, got %d", tokens)
	}
}

func TestInsights_MissingData(t *testing.T) {
	narrator := &mockNarrator{response: &domain.NarrativeResponse{Summary: "ok"}}
	svc, _ := newService(nil, narrator)

	if _, err := svc.Insights(context.Background(), &domain.InsightsRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(narrator.got.MissingData) != 3 {
		t.Errorf("expected 3 missing data entries, got %v", narrator.got.MissingData)
	}
}

func TestInsights_NarrativeDisabled(t *testing.T) {
	svc, _ := newService(nil, nil)

	_, err := svc.Insights(context.Background(), &domain.InsightsRequest{Snapshot: *tightBudget()})
	var unavailable *domain.ErrUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestInsights_NarrativeError(t *testing.T) {
	narrator := &mockNarrator{err: &domain.ErrCircuitOpen{Service: "narrative"}}
	svc, metrics := newService(nil, narrator)

	_, err := svc.Insights(context.Background(), &domain.InsightsRequest{Snapshot: *tightBudget()})
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := metrics.GetAnalysisSnapshot().ExternalErrors; got != 1 {
		t.Errorf("expected 1 external error, got %d", got)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		store      *mockStore
		narrator   *mockNarrator
		wantStatus string
		wantStore  string
		wantNarr   string
	}{
		{"nothing wired", nil, nil, "healthy", "disabled", "disabled"},
		{"all up", &mockStore{}, &mockNarrator{}, "healthy", "up", "up"},
		{"store down", &mockStore{pingErr: errors.New("refused")}, nil, "degraded", "down", "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(tt.store, tt.narrator)
			h := svc.Health(context.Background())
			if h.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, h.Status)
			}
			if len(h.Services) != 2 {
				t.Fatalf("expected 2 services, got %d", len(h.Services))
			}
			if h.Services[0].Status != tt.wantStore || h.Services[1].Status != tt.wantNarr {
				t.Errorf("unexpected services: %+v", h.Services)
			}
		})
	}
}
