package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	analysisDuration prometheus.Histogram
	analysesTotal    *prometheus.CounterVec
	flagsFired       *prometheus.CounterVec
	warningsEmitted  *prometheus.CounterVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec
	snapshotsStored  prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartsave_request_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		analysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smartsave_analysis_duration_seconds",
				Help:    "Duration of a single engine analysis.",
				Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
			},
		),
		analysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsave_analyses_total",
				Help: "Total analyses by outcome.",
			},
			[]string{"outcome"},
		),
		flagsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsave_flags_fired_total",
				Help: "Flags fired by id and severity.",
			},
			[]string{"flag", "severity"},
		),
		warningsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsave_data_quality_warnings_total",
				Help: "Data-quality warnings emitted by id.",
			},
			[]string{"warning"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsave_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsave_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsave_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsave_narrative_tokens_total",
				Help: "Total LLM tokens consumed by the narrative service.",
			},
			[]string{"type"},
		),
		snapshotsStored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "smartsave_snapshots_stored_total",
				Help: "Total snapshots persisted.",
			},
		),
	}
}

// RecordRequestDuration records the duration of a service operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAnalysis records one engine run with the flags and warnings it produced.
func (m *Metrics) RecordAnalysis(d time.Duration, res *domain.AnalysisResult) {
	m.analysisDuration.Observe(d.Seconds())
	m.analysesTotal.WithLabelValues("success").Inc()
	if res == nil {
		return
	}
	for _, f := range res.Flags {
		m.flagsFired.WithLabelValues(f.ID, string(f.Severity)).Inc()
	}
	for _, w := range res.DataQualityWarnings {
		m.warningsEmitted.WithLabelValues(w.ID).Inc()
	}
}

// IncrAnalysisFailure counts a request that never reached the engine.
func (m *Metrics) IncrAnalysisFailure() {
	m.analysesTotal.WithLabelValues("error").Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrSnapshotStored counts a persisted snapshot.
func (m *Metrics) IncrSnapshotStored() {
	m.snapshotsStored.Inc()
}

// GetAnalysisSnapshot returns the counters behind GET /v1/metrics/analysis.
// Prometheus counters are cumulative, so every figure is since start-up.
func (m *Metrics) GetAnalysisSnapshot() *domain.AnalysisMetrics {
	success := getCounterValue(m.analysesTotal.WithLabelValues("success"))
	failed := getCounterValue(m.analysesTotal.WithLabelValues("error"))
	hits := getCounterValue(m.cacheHits.WithLabelValues(AnalysisCache))
	misses := getCounterValue(m.cacheMisses.WithLabelValues(AnalysisCache))

	out := &domain.AnalysisMetrics{
		TotalAnalyses:   int64(success),
		FailedAnalyses:  int64(failed),
		FlagsFired:      make(map[string]int64, len(domain.AllFlagIDs)),
		WarningsEmitted: make(map[string]int64, len(domain.AllWarningIDs)),
		NarrativeTokens: int64(getCounterValue(m.tokensUsed.WithLabelValues("prompt")) +
			getCounterValue(m.tokensUsed.WithLabelValues("completion"))),
		SnapshotsStored: int64(getCounterValue(m.snapshotsStored)),
	}

	if sum, count := getHistogramTotals(m.analysisDuration); count > 0 {
		out.AvgLatencyMs = sum / float64(count) * 1000
	}
	if hits+misses > 0 {
		out.CacheHitRate = hits / (hits + misses)
	}

	for _, id := range domain.AllFlagIDs {
		total := 0.0
		for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow} {
			total += getCounterValue(m.flagsFired.WithLabelValues(id, string(sev)))
		}
		out.FlagsFired[id] = int64(total)
	}
	for _, id := range domain.AllWarningIDs {
		out.WarningsEmitted[id] = int64(getCounterValue(m.warningsEmitted.WithLabelValues(id)))
	}
	for _, svc := range []string{"supabase", "narrative"} {
		out.ExternalErrors += int64(getCounterValue(m.externalErrors.WithLabelValues(svc)))
	}
	return out
}

// AnalysisCache is the cache label used for analysis results.
const AnalysisCache = "analysis"

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getHistogramTotals(h prometheus.Histogram) (float64, uint64) {
	m := &dto.Metric{}
	if err := h.Write(m); err != nil || m.Histogram == nil {
		return 0, 0
	}
	return m.Histogram.GetSampleSum(), m.Histogram.GetSampleCount()
}
