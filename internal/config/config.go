// Package config provides the configuration schema and loader for the clip
// engine.
package config

import "time"

// Config is the root configuration structure for the clip engine.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Run         RunConfig         `yaml:"run"`
	Media       MediaConfig       `yaml:"media"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Segment     SegmentConfig     `yaml:"segment"`
	Validate    ValidateConfig    `yaml:"validate"`
	Scorers     ScorersConfig     `yaml:"scorers"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// RunConfig holds filesystem locations and logging settings shared by every
// pipeline run.
type RunConfig struct {
	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`

	// WorkDir is the scratch directory for extracted audio and transcript
	// artifacts. Default: "./.clipforge/work".
	WorkDir string `yaml:"work_dir"`

	// CheckpointDir is where the Checkpoint Store persists per-source
	// pipeline state. Default: "./.clipforge/checkpoints".
	CheckpointDir string `yaml:"checkpoint_dir"`

	// SpillDir is where the State-Spill Writer persists cooldown spill
	// records. Default: "./.clipforge/spill".
	SpillDir string `yaml:"spill_dir"`
}

// MediaConfig locates the external audio-extraction and transcription
// tools the Orchestrator shells out to (§6: both are out-of-scope
// collaborators, specified only by interface).
type MediaConfig struct {
	// FFmpegPath is the ffmpeg executable used for audio extraction.
	// Defaults to "ffmpeg" resolved via PATH when empty.
	FFmpegPath string `yaml:"ffmpeg_path"`

	// TranscriberPath is the speech-to-text executable invoked for
	// transcription. Required.
	TranscriberPath string `yaml:"transcriber_path"`

	// TranscriberArgs are passed to TranscriberPath before the audio path.
	TranscriberArgs []string `yaml:"transcriber_args"`
}

// LogLevel is a validated slog verbosity name.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels, or empty
// (meaning "use the default").
func (l LogLevel) IsValid() bool {
	switch l {
	case "", LogDebug, LogInfo, LogWarn, LogError:
		return true
	default:
		return false
	}
}

// ScoringConfig mirrors scoring.Config's tunables with YAML tags, applied to
// the Scoring Engine (component D).
type ScoringConfig struct {
	// BatchSize is the number of candidates grouped per scoring request.
	// Default: 6.
	BatchSize int `yaml:"batch_size"`

	// InterRequestDelay is the minimum delay enforced between requests.
	// Default: 1.5s.
	InterRequestDelay time.Duration `yaml:"inter_request_delay"`

	// MaxCooldownThreshold is the retry-after ceiling above which the
	// engine spills state instead of waiting. Default: 60s.
	MaxCooldownThreshold time.Duration `yaml:"max_cooldown_threshold"`

	// Temperature is the sampling temperature sent to the remote model.
	// Default: 0.2.
	Temperature float64 `yaml:"temperature"`

	// PreFilterCount is how many candidates survive the heuristic
	// pre-filter before scoring. Default: 20.
	PreFilterCount int `yaml:"pre_filter_count"`

	// CircuitBreakerThreshold is the number of consecutive failures of a
	// scorer backend (remote or local) that opens its circuit breaker, so
	// later batches skip it. After the breaker's 30s reset timeout the
	// backend is probed again; it is not disabled for the rest of the run.
	// Default: 3.
	CircuitBreakerThreshold int `yaml:"circuit_breaker_threshold"`

	// MaxRetries is the retry budget for transient per-batch failures.
	// Default: 2.
	MaxRetries int `yaml:"max_retries"`

	// PerAttemptTimeout bounds a single remote call's wall-clock time.
	// Default: 120s.
	PerAttemptTimeout time.Duration `yaml:"per_attempt_timeout"`

	// MinPromptChars is the minimum accepted prompt template length.
	// Default: 10.
	MinPromptChars int `yaml:"min_prompt_chars"`

	// PromptTemplate is embedded in every batch request alongside the
	// candidate segments. Required.
	PromptTemplate string `yaml:"prompt_template"`
}

// SegmentConfig mirrors segment.Config, bounding candidate duration and
// pause detection for the Segment Builder (component B).
type SegmentConfig struct {
	// MinDuration and MaxDuration bound candidate duration in seconds.
	// Defaults: 10, 75.
	MinDuration float64 `yaml:"min_duration"`
	MaxDuration float64 `yaml:"max_duration"`

	// PauseThreshold is the minimum inter-sentence gap, in seconds, that
	// is treated as a pause-window boundary. Default: 1.0.
	PauseThreshold float64 `yaml:"pause_threshold"`
}

// ValidateConfig mirrors clipvalidate.Config for the Validator (component E).
type ValidateConfig struct {
	// JaccardThreshold is the similarity at or above which a later,
	// lower-scoring segment is rejected as a semantic duplicate.
	// Default: 0.7.
	JaccardThreshold float64 `yaml:"jaccard_threshold"`
}

// ScorersConfig selects and credentials the local/remote scorer backends
// wired into the Scoring Engine's resilience.FallbackGroup.
type ScorersConfig struct {
	// Remote configures the hosted-model scorer. Leave Name empty to run
	// local-only.
	Remote RemoteScorerConfig `yaml:"remote"`

	// UseLocalFallback adds the deterministic local scorer as a fallback
	// behind Remote. If Remote is not configured it must be true, and the
	// local scorer is then the only scorer.
	UseLocalFallback bool `yaml:"use_local_fallback"`
}

// RemoteScorerConfig configures the OpenAI-backed remote scorer.
type RemoteScorerConfig struct {
	// Name selects the remote scorer implementation. Currently only
	// "openai" is recognised; empty disables the remote scorer.
	Name string `yaml:"name"`

	// APIKey is the authentication key for the remote scorer's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty
	// to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Organization is an optional organization ID header.
	Organization string `yaml:"organization"`

	// Model selects a specific model (e.g., "gpt-4o-mini").
	Model string `yaml:"model"`

	// Timeout bounds the HTTP client's per-request wall-clock time.
	// Default: the scoring engine's PerAttemptTimeout.
	Timeout time.Duration `yaml:"timeout"`
}

// DiagnosticsConfig configures the OTel/Prometheus metrics bridge.
type DiagnosticsConfig struct {
	// ServiceName is the service name reported in telemetry.
	// Default: "clipforge".
	ServiceName string `yaml:"service_name"`

	// MetricsAddr is the address the Prometheus /metrics endpoint listens
	// on (e.g., ":9090"). Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr"`
}
