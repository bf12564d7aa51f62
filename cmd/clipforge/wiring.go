package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/clipforge/engine/internal/checkpoint"
	"github.com/clipforge/engine/internal/clipvalidate"
	"github.com/clipforge/engine/internal/config"
	"github.com/clipforge/engine/internal/diagnostics"
	"github.com/clipforge/engine/internal/media"
	"github.com/clipforge/engine/internal/pipeline"
	"github.com/clipforge/engine/internal/resilience"
	"github.com/clipforge/engine/internal/scoring"
	"github.com/clipforge/engine/internal/scoring/local"
	"github.com/clipforge/engine/internal/scoring/remote"
	"github.com/clipforge/engine/internal/segment"
	"github.com/clipforge/engine/internal/spill"
	"go.opentelemetry.io/otel"
)

// newLogger mirrors the teacher's cmd/glyphoxa/main.go: a level-mapped
// slog.TextHandler writing to stderr.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// buildScorerGroup assembles the resilience.FallbackGroup backing the
// Scoring Engine from cfg.Scorers: remote-primary with a local fallback,
// remote-only, or local-only.
func buildScorerGroup(cfg config.Config) (*resilience.FallbackGroup[scoring.Scorer], error) {
	threshold := cfg.Scoring.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = scoring.Config{}.WithDefaults().CircuitBreakerThreshold
	}
	cbCfg := resilience.CircuitBreakerConfig{MaxFailures: threshold}

	if cfg.Scorers.Remote.Name == "" {
		if !cfg.Scorers.UseLocalFallback {
			return nil, fmt.Errorf("clipforge: no scorer configured")
		}
		return resilience.NewFallbackGroup[scoring.Scorer](local.New(), "local", resilience.FallbackConfig{CircuitBreaker: cbCfg}), nil
	}

	var opts []remote.Option
	if cfg.Scorers.Remote.BaseURL != "" {
		opts = append(opts, remote.WithBaseURL(cfg.Scorers.Remote.BaseURL))
	}
	if cfg.Scorers.Remote.Organization != "" {
		opts = append(opts, remote.WithOrganization(cfg.Scorers.Remote.Organization))
	}
	timeout := cfg.Scorers.Remote.Timeout
	if timeout <= 0 {
		timeout = cfg.Scoring.PerAttemptTimeout
	}
	if timeout > 0 {
		opts = append(opts, remote.WithTimeout(timeout))
	}

	remoteScorer, err := remote.New(cfg.Scorers.Remote.APIKey, cfg.Scorers.Remote.Model, opts...)
	if err != nil {
		return nil, fmt.Errorf("clipforge: build remote scorer: %w", err)
	}

	group := resilience.NewFallbackGroup[scoring.Scorer](remoteScorer, "remote", resilience.FallbackConfig{CircuitBreaker: cbCfg})
	if cfg.Scorers.UseLocalFallback {
		group.AddFallback("local", local.New())
	}
	return group, nil
}

// buildOrchestrator wires every component the Orchestrator drives (§4.7)
// from a loaded config.Config.
func buildOrchestrator(cfg config.Config, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	group, err := buildScorerGroup(cfg)
	if err != nil {
		return nil, err
	}

	metrics, err := diagnostics.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("clipforge: build metrics: %w", err)
	}
	stats := diagnostics.NewPipelineStats(256)
	reporter := diagnostics.NewLogMetricsReporter(logger, metrics, stats)

	store := checkpoint.NewFileStore(cfg.Run.CheckpointDir, logger)
	engine := scoring.NewEngine(group, spill.NewFileWriter(cfg.Run.SpillDir), reporter)

	pCfg := pipeline.Config{
		Checkpoint: store,
		AudioExtractor: media.FFmpegExtractor{BinaryPath: cfg.Media.FFmpegPath},
		Transcriber: media.CommandTranscriber{
			BinaryPath: cfg.Media.TranscriberPath,
			Args:       cfg.Media.TranscriberArgs,
		},
		Engine:   engine,
		Reporter: reporter,
		Segment: segment.Config{
			MinDuration:    cfg.Segment.MinDuration,
			MaxDuration:    cfg.Segment.MaxDuration,
			PauseThreshold: cfg.Segment.PauseThreshold,
		},
		Scoring: scoring.Config{
			BatchSize:               cfg.Scoring.BatchSize,
			InterRequestDelay:       cfg.Scoring.InterRequestDelay,
			MaxCooldownThreshold:    cfg.Scoring.MaxCooldownThreshold,
			Temperature:             cfg.Scoring.Temperature,
			PreFilterCount:          cfg.Scoring.PreFilterCount,
			CircuitBreakerThreshold: cfg.Scoring.CircuitBreakerThreshold,
			MaxRetries:              cfg.Scoring.MaxRetries,
			PerAttemptTimeout:       cfg.Scoring.PerAttemptTimeout,
			MinPromptChars:          cfg.Scoring.MinPromptChars,
			PromptTemplate:          cfg.Scoring.PromptTemplate,
			Credential:              cfg.Scorers.Remote.APIKey,
		},
		Validate:          clipvalidate.Config{JaccardThreshold: cfg.Validate.JaccardThreshold},
		RequireCredential: cfg.Scorers.Remote.Name != "",
		WorkDir:           cfg.Run.WorkDir,
	}

	return pipeline.New(pCfg, logger), nil
}
