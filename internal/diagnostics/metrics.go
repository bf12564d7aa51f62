// Package diagnostics provides application-wide observability primitives for
// the clip engine: OpenTelemetry metrics and the [Reporter] sink that stage
// implementations use to emit structured progress events.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package diagnostics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all clip-engine metrics.
const meterName = "github.com/clipforge/engine"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// SegmentationDuration tracks candidate-segment-building latency.
	SegmentationDuration metric.Float64Histogram

	// ScoringDuration tracks one scoring-batch round-trip latency, remote or
	// local.
	ScoringDuration metric.Float64Histogram

	// ValidationDuration tracks dedup/overlap-validation latency.
	ValidationDuration metric.Float64Histogram

	// --- Counters ---

	// BatchesScored counts completed scoring batches. Use with attributes:
	//   attribute.String("backend", ...), attribute.String("status", ...)
	BatchesScored metric.Int64Counter

	// RetriesTotal counts scoring-request retries. Use with attribute:
	//   attribute.String("reason", ...)
	RetriesTotal metric.Int64Counter

	// SpillsTotal counts state-spill events. Use with attribute:
	//   attribute.String("reason", ...)
	SpillsTotal metric.Int64Counter

	// FallbackActivations counts local/remote scorer failovers. Use with
	// attribute:
	//   attribute.String("from", ...), attribute.String("to", ...)
	FallbackActivations metric.Int64Counter

	// --- Error counters ---

	// ScoringErrors counts scoring-backend errors. Use with attribute:
	//   attribute.String("backend", ...)
	ScoringErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSources tracks the number of sources currently being processed.
	ActiveSources metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// scoring round-trips against a remote model, which run much longer than
// the sub-second latencies a request/response server would expect.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SegmentationDuration, err = m.Float64Histogram("clipforge.segmentation.duration",
		metric.WithDescription("Latency of candidate segment construction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoringDuration, err = m.Float64Histogram("clipforge.scoring.duration",
		metric.WithDescription("Latency of a scoring batch round-trip."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ValidationDuration, err = m.Float64Histogram("clipforge.validation.duration",
		metric.WithDescription("Latency of overlap removal and dedup."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.BatchesScored, err = m.Int64Counter("clipforge.scoring.batches",
		metric.WithDescription("Total scoring batches by backend and status."),
	); err != nil {
		return nil, err
	}
	if met.RetriesTotal, err = m.Int64Counter("clipforge.scoring.retries",
		metric.WithDescription("Total scoring-request retries by reason."),
	); err != nil {
		return nil, err
	}
	if met.SpillsTotal, err = m.Int64Counter("clipforge.spills",
		metric.WithDescription("Total state-spill events by reason."),
	); err != nil {
		return nil, err
	}
	if met.FallbackActivations, err = m.Int64Counter("clipforge.scoring.fallbacks",
		metric.WithDescription("Total scorer failovers by source and target backend."),
	); err != nil {
		return nil, err
	}

	if met.ScoringErrors, err = m.Int64Counter("clipforge.scoring.errors",
		metric.WithDescription("Total scoring backend errors by backend."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSources, err = m.Int64UpDownCounter("clipforge.active_sources",
		metric.WithDescription("Number of sources currently being processed."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("diagnostics: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordBatchScored is a convenience method that records a scoring-batch
// counter increment with the standard attribute set.
func (m *Metrics) RecordBatchScored(ctx context.Context, backend, status string) {
	m.BatchesScored.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("status", status),
		),
	)
}

// RecordRetry is a convenience method that records a retry counter
// increment.
func (m *Metrics) RecordRetry(ctx context.Context, reason string) {
	m.RetriesTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordSpill is a convenience method that records a spill counter
// increment.
func (m *Metrics) RecordSpill(ctx context.Context, reason string) {
	m.SpillsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordFallback is a convenience method that records a scorer-failover
// counter increment.
func (m *Metrics) RecordFallback(ctx context.Context, from, to string) {
	m.FallbackActivations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		),
	)
}

// RecordScoringError is a convenience method that records a scoring-backend
// error counter increment.
func (m *Metrics) RecordScoringError(ctx context.Context, backend string) {
	m.ScoringErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("backend", backend)),
	)
}
