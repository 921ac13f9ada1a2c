package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/engine"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/observability"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/smartsave-bfa-go/internal/port"
)

var tracer = otel.Tracer("service/analysis")

// MaxBatchSize caps the number of snapshots accepted by AnalyzeBatch.
const MaxBatchSize = 100

// MaxUserIDLength bounds the user identifiers accepted by the snapshot
// operations.
const MaxUserIDLength = 128

const topCategoriesForNarrative = 5

// Analysis orchestrates the spending engine, the snapshot store and the
// narrative service.
type Analysis struct {
	engine      *engine.Engine
	store       port.SnapshotStore
	narrator    port.NarrativeCaller
	cache       port.Cache[*domain.AnalysisResult]
	bulkhead    *resilience.Bulkhead
	metrics     *observability.Metrics
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// NewAnalysis creates the analysis service with all dependencies injected.
// store and narrator may be nil; the operations that need them then return
// domain.ErrUnavailable.
func NewAnalysis(
	eng *engine.Engine,
	store port.SnapshotStore,
	narrator port.NarrativeCaller,
	cache port.Cache[*domain.AnalysisResult],
	metrics *observability.Metrics,
	logger *zap.Logger,
	maxConcurrency int,
) *Analysis {
	if eng == nil {
		eng = engine.New(engine.DefaultThresholds())
	}
	return &Analysis{
		engine:      eng,
		store:       store,
		narrator:    narrator,
		cache:       cache,
		bulkhead:    resilience.NewBulkhead(maxConcurrency),
		metrics:     metrics,
		logger:      logger,
		concurrency: max(maxConcurrency, 1),
		now:         time.Now,
	}
}

// Analyze runs the engine on a snapshot. Results are cached by snapshot
// fingerprint.
func (a *Analysis) Analyze(ctx context.Context, s *domain.FinancialSnapshot) (*domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, span := tracer.Start(ctx, "Analysis.Analyze")
	defer span.End()

	if s == nil {
		s = &domain.FinancialSnapshot{}
	}

	key, err := fingerprint(s)
	if err != nil {
		a.metrics.IncrAnalysisFailure()
		return nil, fmt.Errorf("fingerprint snapshot: %w", err)
	}
	span.SetAttributes(attribute.String("snapshot.fingerprint", key))

	if cached, ok := a.cache.Get(key); ok {
		a.metrics.IncrCacheHit(observability.AnalysisCache)
		return cached, nil
	}
	a.metrics.IncrCacheMiss(observability.AnalysisCache)

	start := time.Now()
	res := a.engine.Analyze(s)
	a.metrics.RecordAnalysis(time.Since(start), res)
	a.cache.Set(key, res)

	a.logger.Debug("analysis computed",
		zap.String("fingerprint", key),
		zap.Int("flags", len(res.Flags)),
		zap.Int("warnings", len(res.DataQualityWarnings)),
	)
	span.SetAttributes(attribute.Int("flags.count", len(res.Flags)))
	return res, nil
}

// AnalyzeBatch analyzes snapshots concurrently, bounded by the configured
// concurrency. Results keep the request order.
func (a *Analysis) AnalyzeBatch(ctx context.Context, snapshots []domain.FinancialSnapshot) ([]*domain.AnalysisResult, error) {
	ctx, span := tracer.Start(ctx, "Analysis.AnalyzeBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(snapshots)))

	if len(snapshots) > MaxBatchSize {
		return nil, &domain.ErrValidation{
			Field:   "snapshots",
			Message: fmt.Sprintf("at most %d snapshots per batch", MaxBatchSize),
		}
	}

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("analysis_batch", time.Since(start))
	}()

	results := make([]*domain.AnalysisResult, len(snapshots))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i := range snapshots {
		i := i
		g.Go(func() error {
			res, err := a.Analyze(gCtx, &snapshots[i])
			if err != nil {
				return fmt.Errorf("snapshot %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return results, nil
}

// SaveSnapshot persists a snapshot for userID.
func (a *Analysis) SaveSnapshot(ctx context.Context, userID string, s *domain.FinancialSnapshot) (*domain.StoredSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Analysis.SaveSnapshot")
	defer span.End()

	userID, err := validateUserID(userID)
	if err != nil {
		return nil, err
	}
	if a.store == nil {
		return nil, &domain.ErrUnavailable{Feature: "snapshot store"}
	}
	if s == nil {
		s = &domain.FinancialSnapshot{}
	}
	span.SetAttributes(attribute.String("user.id", userID))

	record := &domain.StoredSnapshot{
		ID:         uuid.New().String(),
		UserID:     userID,
		CapturedAt: a.now().UTC(),
		Snapshot:   *s,
	}

	start := time.Now()
	saved, err := a.store.SaveSnapshot(ctx, record)
	a.metrics.RecordRequestDuration("snapshot_save", time.Since(start))
	if err != nil {
		a.logger.Error("failed to save snapshot",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		a.metrics.IncrExternalError("supabase")
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	a.metrics.IncrSnapshotStored()
	return saved, nil
}

// GetSnapshot returns the latest stored snapshot for userID.
func (a *Analysis) GetSnapshot(ctx context.Context, userID string) (*domain.StoredSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Analysis.GetSnapshot")
	defer span.End()

	userID, err := validateUserID(userID)
	if err != nil {
		return nil, err
	}
	if a.store == nil {
		return nil, &domain.ErrUnavailable{Feature: "snapshot store"}
	}
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	s, err := a.store.GetLatestSnapshot(ctx, userID)
	a.metrics.RecordRequestDuration("snapshot_get", time.Since(start))
	if err != nil {
		if !isNotFound(err) {
			a.logger.Error("failed to fetch snapshot",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			a.metrics.IncrExternalError("supabase")
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return s, nil
}

// AnalyzeStored analyzes the latest stored snapshot of userID.
func (a *Analysis) AnalyzeStored(ctx context.Context, userID string) (*domain.AnalysisResult, error) {
	stored, err := a.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, &stored.Snapshot)
}

// Insights analyzes the snapshot, then asks the narrative service to explain
// the result. Only the analysis summary is sent, never the raw snapshot.
func (a *Analysis) Insights(ctx context.Context, req *domain.InsightsRequest) (*domain.InsightsResponse, error) {
	ctx, span := tracer.Start(ctx, "Analysis.Insights")
	defer span.End()

	if a.narrator == nil {
		return nil, &domain.ErrUnavailable{Feature: "narrative"}
	}

	res, err := a.Analyze(ctx, &req.Snapshot)
	if err != nil {
		return nil, err
	}

	if err := a.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "narrative"}
	}
	defer a.bulkhead.Release()

	narrativeStart := time.Now()
	narrative, err := a.narrator.Narrate(ctx, buildNarrativeRequest(req, res))
	a.metrics.RecordRequestDuration("narrative", time.Since(narrativeStart))
	if err != nil {
		a.logger.Error("narrative call failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		a.metrics.IncrExternalError("narrative")
		return nil, fmt.Errorf("narrative call: %w", err)
	}

	a.metrics.RecordTokens(narrative.TokensUsed.PromptTokens, narrative.TokensUsed.CompletionTokens)

	return &domain.InsightsResponse{Analysis: res, Narrative: narrative}, nil
}

// Health reports which collaborators are wired and reachable.
func (a *Analysis) Health(ctx context.Context) *domain.HealthStatus {
	status := &domain.HealthStatus{Status: "healthy"}

	storeStatus := "disabled"
	if a.store != nil {
		storeStatus = "up"
		if p, ok := a.store.(port.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				a.logger.Warn("snapshot store unreachable", zap.Error(err))
				storeStatus = "down"
				status.Status = "degraded"
			}
		}
	}
	status.Services = append(status.Services, domain.ServiceHealth{Name: "supabase", Status: storeStatus})

	narrativeStatus := "disabled"
	if a.narrator != nil {
		narrativeStatus = "up"
	}
	status.Services = append(status.Services, domain.ServiceHealth{Name: "narrative", Status: narrativeStatus})

	return status
}

// Metrics returns the analysis counters for the metrics endpoint.
func (a *Analysis) Metrics() *domain.AnalysisMetrics {
	return a.metrics.GetAnalysisSnapshot()
}

// fingerprint hashes the canonical encoding of a snapshot.
func fingerprint(s *domain.FinancialSnapshot) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func validateUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", &domain.ErrValidation{Field: "userId", Message: "required"}
	}
	if len(userID) > MaxUserIDLength {
		return "", &domain.ErrValidation{
			Field:   "userId",
			Message: fmt.Sprintf("must be at most %d characters", MaxUserIDLength),
		}
	}
	return userID, nil
}
