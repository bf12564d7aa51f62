package config_test

import (
	"strings"
	"testing"

	"github.com/clipforge/engine/internal/config"
)

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
run:
  log_level: loud
scoring:
  temperature: -1
scorers:
  use_local_fallback: false
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
	if !strings.Contains(errStr, "temperature") {
		t.Errorf("error should mention temperature, got: %v", err)
	}
	if !strings.Contains(errStr, "no scorer would be available") {
		t.Errorf("error should mention missing scorer, got: %v", err)
	}
}

func TestValidate_NegativeBatchSize(t *testing.T) {
	t.Parallel()
	yaml := `
scoring:
  batch_size: -1
scorers:
  use_local_fallback: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative batch_size, got nil")
	}
	if !strings.Contains(err.Error(), "batch_size") {
		t.Errorf("error should mention batch_size, got: %v", err)
	}
}

func TestValidate_NegativePauseThreshold(t *testing.T) {
	t.Parallel()
	yaml := `
segment:
  pause_threshold: -0.5
scorers:
  use_local_fallback: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative pause_threshold, got nil")
	}
	if !strings.Contains(err.Error(), "pause_threshold") {
		t.Errorf("error should mention pause_threshold, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/path/clipforge.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
