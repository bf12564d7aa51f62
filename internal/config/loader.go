package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Run.WorkDir == "" {
		cfg.Run.WorkDir = "./.clipforge/work"
	}
	if cfg.Run.CheckpointDir == "" {
		cfg.Run.CheckpointDir = "./.clipforge/checkpoints"
	}
	if cfg.Run.SpillDir == "" {
		cfg.Run.SpillDir = "./.clipforge/spill"
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Run.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("run.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Run.LogLevel))
	}

	if cfg.Media.TranscriberPath == "" {
		errs = append(errs, errors.New("media.transcriber_path is required"))
	}

	if cfg.Scoring.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("scoring.batch_size %d must not be negative", cfg.Scoring.BatchSize))
	}
	if cfg.Scoring.Temperature < 0 || cfg.Scoring.Temperature > 2 {
		errs = append(errs, fmt.Errorf("scoring.temperature %.2f is out of range [0, 2]", cfg.Scoring.Temperature))
	}
	if cfg.Scoring.PreFilterCount < 0 {
		errs = append(errs, fmt.Errorf("scoring.pre_filter_count %d must not be negative", cfg.Scoring.PreFilterCount))
	}
	if cfg.Scoring.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("scoring.max_retries %d must not be negative", cfg.Scoring.MaxRetries))
	}
	if cfg.Scoring.CircuitBreakerThreshold < 0 {
		errs = append(errs, fmt.Errorf("scoring.circuit_breaker_threshold %d must not be negative", cfg.Scoring.CircuitBreakerThreshold))
	}

	if cfg.Segment.MinDuration < 0 {
		errs = append(errs, fmt.Errorf("segment.min_duration %.2f must not be negative", cfg.Segment.MinDuration))
	}
	if cfg.Segment.MaxDuration > 0 && cfg.Segment.MinDuration > 0 && cfg.Segment.MinDuration > cfg.Segment.MaxDuration {
		errs = append(errs, fmt.Errorf("segment.min_duration %.2f exceeds segment.max_duration %.2f", cfg.Segment.MinDuration, cfg.Segment.MaxDuration))
	}
	if cfg.Segment.PauseThreshold < 0 {
		errs = append(errs, fmt.Errorf("segment.pause_threshold %.2f must not be negative", cfg.Segment.PauseThreshold))
	}

	if cfg.Validate.JaccardThreshold < 0 || cfg.Validate.JaccardThreshold > 1 {
		errs = append(errs, fmt.Errorf("validate.jaccard_threshold %.2f is out of range [0, 1]", cfg.Validate.JaccardThreshold))
	}

	if cfg.Scorers.Remote.Name != "" && cfg.Scorers.Remote.Name != "openai" {
		errs = append(errs, fmt.Errorf("scorers.remote.name %q is invalid; valid values: \"\", \"openai\"", cfg.Scorers.Remote.Name))
	}
	if cfg.Scorers.Remote.Name == "" && !cfg.Scorers.UseLocalFallback {
		errs = append(errs, errors.New("scorers: no remote scorer configured and scorers.use_local_fallback is false — no scorer would be available"))
	}

	return errors.Join(errs...)
}
