package config_test

import (
	"strings"
	"testing"

	"github.com/clipforge/engine/internal/config"
)

const sampleYAML = `
run:
  log_level: info
  work_dir: ./work
  checkpoint_dir: ./checkpoints
  spill_dir: ./spill

media:
  ffmpeg_path: ffmpeg
  transcriber_path: whisper-cli
  transcriber_args: ["--model", "base.en", "--output-json"]

scoring:
  batch_size: 6
  inter_request_delay: 1.5s
  max_cooldown_threshold: 60s
  temperature: 0.2
  pre_filter_count: 20
  circuit_breaker_threshold: 3
  max_retries: 2
  per_attempt_timeout: 120s
  min_prompt_chars: 10
  prompt_template: "score these clips for short-form virality"

segment:
  min_duration: 10
  max_duration: 75
  pause_threshold: 1.0

validate:
  jaccard_threshold: 0.7

scorers:
  remote:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini
  use_local_fallback: true

diagnostics:
  service_name: clipforge
  metrics_addr: ":9090"
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Run.LogLevel != config.LogInfo {
		t.Errorf("run.log_level: got %q, want %q", cfg.Run.LogLevel, config.LogInfo)
	}
	if cfg.Scoring.BatchSize != 6 {
		t.Errorf("scoring.batch_size: got %d, want 6", cfg.Scoring.BatchSize)
	}
	if cfg.Scoring.PromptTemplate == "" {
		t.Error("scoring.prompt_template should not be empty")
	}
	if cfg.Segment.MaxDuration != 75 {
		t.Errorf("segment.max_duration: got %.2f, want 75", cfg.Segment.MaxDuration)
	}
	if cfg.Validate.JaccardThreshold != 0.7 {
		t.Errorf("validate.jaccard_threshold: got %.2f, want 0.7", cfg.Validate.JaccardThreshold)
	}
	if cfg.Scorers.Remote.Name != "openai" {
		t.Errorf("scorers.remote.name: got %q, want openai", cfg.Scorers.Remote.Name)
	}
	if !cfg.Scorers.UseLocalFallback {
		t.Error("scorers.use_local_fallback should be true")
	}
	if cfg.Diagnostics.MetricsAddr != ":9090" {
		t.Errorf("diagnostics.metrics_addr: got %q", cfg.Diagnostics.MetricsAddr)
	}
}

func TestLoadFromReader_EmptyRequiresAScorer(t *testing.T) {
	// An empty config has no remote scorer and no local fallback enabled,
	// so it is rejected — a run with no scorer at all can never score a
	// candidate.
	_, err := config.LoadFromReader(strings.NewReader("{}"))
	if err == nil {
		t.Fatal("expected error for empty config, got nil")
	}
	if !strings.Contains(err.Error(), "no scorer would be available") {
		t.Errorf("error should mention missing scorer, got: %v", err)
	}
}

func TestLoadFromReader_LocalOnlyIsValid(t *testing.T) {
	yaml := `
media:
  transcriber_path: whisper-cli
scoring:
  prompt_template: "score these clips"
scorers:
  use_local_fallback: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
run:
  log_level: verbose
scorers:
  use_local_fallback: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_InvalidTemperature(t *testing.T) {
	yaml := `
scoring:
  temperature: 5.0
scorers:
  use_local_fallback: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range temperature, got nil")
	}
	if !strings.Contains(err.Error(), "temperature") {
		t.Errorf("error should mention temperature, got: %v", err)
	}
}

func TestValidate_InvalidJaccardThreshold(t *testing.T) {
	yaml := `
validate:
  jaccard_threshold: 1.5
scorers:
  use_local_fallback: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range jaccard_threshold, got nil")
	}
	if !strings.Contains(err.Error(), "jaccard_threshold") {
		t.Errorf("error should mention jaccard_threshold, got: %v", err)
	}
}

func TestValidate_InvalidRemoteScorerName(t *testing.T) {
	yaml := `
scorers:
  remote:
    name: anthropic
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unrecognised remote scorer name, got nil")
	}
	if !strings.Contains(err.Error(), "scorers.remote.name") {
		t.Errorf("error should mention scorers.remote.name, got: %v", err)
	}
}

func TestValidate_MinExceedsMaxDuration(t *testing.T) {
	yaml := `
segment:
  min_duration: 80
  max_duration: 75
scorers:
  use_local_fallback: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for min_duration exceeding max_duration, got nil")
	}
	if !strings.Contains(err.Error(), "min_duration") {
		t.Errorf("error should mention min_duration, got: %v", err)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	yaml := `
scorers:
  use_local_fallback: true
unknown_field: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}
