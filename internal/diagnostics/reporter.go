package diagnostics

import (
	"context"
	"log/slog"
	"time"
)

// Reporter receives fire-and-forget progress events from the pipeline
// stages. A single implementation is expected to both log structurally and
// emit the corresponding OTel metrics, so that stage code never has to call
// both a logger and a metrics recorder directly.
type Reporter interface {
	// StageStarted is called once when a pipeline stage begins processing a
	// source.
	StageStarted(ctx context.Context, stage, sourcePath string)

	// StageCompleted is called once when a pipeline stage finishes, success
	// or failure. err is nil on success.
	StageCompleted(ctx context.Context, stage, sourcePath string, d time.Duration, err error)

	// Progress reports incremental progress within a stage, e.g. "segment
	// 12 of 40 scored".
	Progress(ctx context.Context, stage string, done, total int)

	// BatchScored is called after each scoring batch completes, success or
	// failure, recording latency and backend/retry bookkeeping.
	BatchScored(ctx context.Context, backend string, d time.Duration, retries int, err error)
}

// LogMetricsReporter is the default [Reporter]: it writes structured log
// lines via [slog] and records the matching instruments on [Metrics], and
// accumulates run-level counters on a [PipelineStats].
type LogMetricsReporter struct {
	Logger  *slog.Logger
	Metrics *Metrics
	Stats   *PipelineStats
}

// NewLogMetricsReporter builds a [LogMetricsReporter]. A nil logger falls
// back to [slog.Default]; a nil metrics struct falls back to
// [DefaultMetrics]; a nil stats pointer creates a fresh [PipelineStats].
func NewLogMetricsReporter(logger *slog.Logger, metrics *Metrics, stats *PipelineStats) *LogMetricsReporter {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	if stats == nil {
		stats = NewPipelineStats(0)
	}
	return &LogMetricsReporter{Logger: logger, Metrics: metrics, Stats: stats}
}

func (r *LogMetricsReporter) StageStarted(ctx context.Context, stage, sourcePath string) {
	r.Logger.Info("stage started", "stage", stage, "source", sourcePath)
	r.Metrics.ActiveSources.Add(ctx, 1)
}

func (r *LogMetricsReporter) StageCompleted(ctx context.Context, stage, sourcePath string, d time.Duration, err error) {
	r.Metrics.ActiveSources.Add(ctx, -1)
	switch stage {
	case "segmentation":
		r.Metrics.SegmentationDuration.Record(ctx, d.Seconds())
	case "validation":
		r.Metrics.ValidationDuration.Record(ctx, d.Seconds())
	}
	if err != nil {
		r.Stats.IncrErrors()
		r.Logger.Error("stage failed", "stage", stage, "source", sourcePath, "duration", d, "error", err)
		return
	}
	r.Logger.Info("stage completed", "stage", stage, "source", sourcePath, "duration", d)
}

func (r *LogMetricsReporter) Progress(ctx context.Context, stage string, done, total int) {
	r.Logger.Info("stage progress", "stage", stage, "done", done, "total", total)
}

func (r *LogMetricsReporter) BatchScored(ctx context.Context, backend string, d time.Duration, retries int, err error) {
	r.Stats.RecordBatch(d)
	r.Metrics.ScoringDuration.Record(ctx, d.Seconds())
	for i := 0; i < retries; i++ {
		r.Stats.IncrRetries()
		r.Metrics.RecordRetry(ctx, "rate_limited")
	}

	if err != nil {
		r.Metrics.RecordBatchScored(ctx, backend, "error")
		r.Metrics.RecordScoringError(ctx, backend)
		r.Logger.Warn("scoring batch failed", "backend", backend, "duration", d, "retries", retries, "error", err)
		return
	}
	r.Metrics.RecordBatchScored(ctx, backend, "ok")
	r.Logger.Info("scoring batch completed", "backend", backend, "duration", d, "retries", retries)
}
