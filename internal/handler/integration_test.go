package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/engine"
	"github.com/boddenberg/smartsave-bfa-go/internal/handler"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/cache"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/client"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/observability"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/smartsave-bfa-go/internal/service"
)

// fakePostgREST keeps financial_snapshots rows in memory.
func fakePostgREST(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu   sync.Mutex
		rows []json.RawMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/v1/financial_snapshots") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		mu.Lock()
		defer mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			rows = append(rows, body)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("[" + string(body) + "]"))
		case http.MethodGet:
			if len(rows) == 0 {
				w.Write([]byte("[]"))
				return
			}
			w.Write([]byte("[" + string(rows[len(rows)-1]) + "]"))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestIntegration_FullFlow wires the real adapters against fake upstreams.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Mock narrative API ---
	var narrativeReq domain.NarrativeRequest
	narrativeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&narrativeReq); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp := domain.NarrativeResponse{
			Summary:    "Ton épargne de sécurité couvre moins d’un mois.",
			Highlights: []string{"Constituer un coussin de 3 mois"},
			Confidence: 0.87,
			TokensUsed: domain.TokenUsage{PromptTokens: 800, CompletionTokens: 200, TotalTokens: 1000},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer narrativeServer.Close()

	supabaseServer := fakePostgREST(t)

	// --- Build service ---
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, supabaseServer.URL, "anon", "service",
		resilience.NewCircuitBreaker("supabase", logger), cfg, logger)
	narrator := client.NewNarrativeClient(httpClient, narrativeServer.URL,
		resilience.NewCircuitBreaker("narrative", logger), cfg)

	svc := service.NewAnalysis(
		engine.New(engine.DefaultThresholds()),
		store,
		narrator,
		cache.New[*domain.AnalysisResult](5*time.Minute, 100),
		metrics,
		logger,
		cfg.MaxConcurrency,
	)
	router := handler.NewRouter(svc, metrics, logger)

	// --- Persist a snapshot ---
	snapshot := `{
		"incomes": [{"amount": "6'000", "amountType": "net", "frequency": "mensuel"}],
		"expenses": {
			"fixed": [{"label": "Loyer", "montant": 2000}],
			"variable": [{"label": "Courses", "amount": 1200}]
		},
		"currentSavings": 1500
	}`
	rec := do(t, router, http.MethodPut, "/v1/users/user-42/snapshot", snapshot)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// --- Analyze the stored snapshot ---
	rec = do(t, router, http.MethodGet, "/v1/users/user-42/analysis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Metrics.IncomeNetMonthly != 6000 || result.Metrics.TotalExpensesMonthly != 3200 {
		t.Errorf("unexpected metrics: %+v", result.Metrics)
	}
	if result.Impacts.NeedForSafety3MonthsCHF != 8100 {
		t.Errorf("expected need3 8100, got %d", result.Impacts.NeedForSafety3MonthsCHF)
	}

	// --- Ask for a narrative ---
	rec = do(t, router, http.MethodPost, "/v1/analysis/insights",
		`{"userId":"user-42","question":"Par où commencer ?","snapshot":`+snapshot+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var insights domain.InsightsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &insights); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if insights.Narrative == nil || insights.Narrative.Confidence != 0.87 {
		t.Errorf("unexpected narrative: %+v", insights.Narrative)
	}
	if narrativeReq.UserID != "user-42" || len(narrativeReq.Flags) == 0 {
		t.Errorf("narrative service got an incomplete context: %+v", narrativeReq)
	}

	// --- Metrics reflect the whole flow ---
	snap := metrics.GetAnalysisSnapshot()
	if snap.SnapshotsStored != 1 {
		t.Errorf("expected 1 stored snapshot, got %d", snap.SnapshotsStored)
	}
	if snap.NarrativeTokens != 1000 {
		t.Errorf("expected 1000 narrative tokens, got %d", snap.NarrativeTokens)
	}

	// --- Health pings PostgREST ---
	rec = do(t, router, http.MethodGet, "/healthz", "")
	var health domain.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %+v", health)
	}
}

func TestIntegration_UpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 2}

	store := supabase.NewClient(down.Client(), down.URL, "anon", "service",
		resilience.NewCircuitBreaker("supabase", logger), cfg, logger)
	narrator := client.NewNarrativeClient(down.Client(), down.URL,
		resilience.NewCircuitBreaker("narrative", logger), cfg)

	svc := service.NewAnalysis(nil, store, narrator,
		cache.New[*domain.AnalysisResult](time.Minute, 10), metrics, logger, cfg.MaxConcurrency)
	router := handler.NewRouter(svc, metrics, logger)

	rec := do(t, router, http.MethodGet, "/v1/users/user-42/snapshot", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/v1/analysis/insights", `{"snapshot":`+tightBudgetJSON+`}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/healthz", "")
	var health domain.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "degraded" {
		t.Errorf("expected degraded, got %q", health.Status)
	}
}
