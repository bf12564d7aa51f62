// Package scoring implements the Scoring Engine (component D): heuristic
// pre-filtering, batched requests to a remote or local model, JSON
// extraction, retry/backoff honoring server cooldown hints, circuit
// breaking between a local and remote backend, and graceful state-spill
// when throttling exceeds a configured threshold.
package scoring

import (
	"context"
	"errors"
	"time"
)

// Scorer is the abstraction over any scoring backend, local or remote.
// Implementations must be safe for concurrent use.
//
// ScoreBatch sends a single batch request — a system instruction enforcing
// JSON-only output plus a user payload containing the formatted candidate
// list — and returns the raw response text for extraction by
// [ExtractJSON]. Errors should be (or wrap) a [RateLimitError] when the
// backend signals throttling, so the engine can apply the cooldown
// protocol from §4.4.
type Scorer interface {
	ScoreBatch(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// RateLimitError is returned (or wrapped) by a [Scorer] when the backend
// signals throttling. RetryAfter is the server-supplied cooldown, when
// present.
type RateLimitError struct {
	RetryAfter    time.Duration
	HasRetryAfter bool
	Err           error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return "scoring: rate limited: " + e.Err.Error()
	}
	return "scoring: rate limited"
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// AsRateLimitError extracts a *RateLimitError from err, if any, via
// errors.As.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// Pre-flight and configuration error sentinels (§4.8, §10.2). Callers use
// errors.Is to distinguish these from transient scoring failures.
var (
	// ErrPromptEmpty is returned when the configured prompt template is
	// empty or whitespace-only.
	ErrPromptEmpty = errors.New("scoring: prompt_empty")

	// ErrPromptTooShort is returned when the prompt template is shorter
	// than Config.MinPromptChars.
	ErrPromptTooShort = errors.New("scoring: prompt_too_short")

	// ErrCredentialMissing is returned when a remote call is attempted
	// without a configured credential.
	ErrCredentialMissing = errors.New("scoring: credential_missing")

	// ErrCancelled is returned when the run is aborted via context
	// cancellation between suspension points (§5).
	ErrCancelled = errors.New("scoring: cancelled")

	// ErrSpilled signals that the engine stopped and spilled partial
	// state rather than continuing to wait out a long cooldown. Engine.Score
	// returns it alongside the segments scored before the spill, and the
	// Orchestrator does not treat it as a run failure (§4.4 step 4, §7).
	ErrSpilled = errors.New("scoring: spilled")
)
