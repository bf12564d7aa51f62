package scoring

import (
	"strings"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// Preflight rejects invalid prompts/configs before any remote call
// (component H, §4.8). It returns a non-nil error identifying the
// rejection reason via errors.Is against the ErrPrompt*/ErrCredential*
// sentinels.
func Preflight(cfg Config, needsCredential bool) error {
	trimmed := strings.TrimSpace(cfg.PromptTemplate)
	if trimmed == "" {
		return ErrPromptEmpty
	}
	if len(trimmed) < cfg.MinPromptChars {
		return ErrPromptTooShort
	}
	if needsCredential && strings.TrimSpace(cfg.Credential) == "" {
		return ErrCredentialMissing
	}
	return nil
}

// FallbackForRejection builds the one-fallback-per-candidate result set
// returned when Preflight rejects the run (§4.8): all-zero scores,
// verdict "skip", weaknesses = ["invalid prompt"].
func FallbackForRejection(candidates []clipmodel.CandidateSegment) []clipmodel.ScoredSegment {
	out := make([]clipmodel.ScoredSegment, len(candidates))
	for i, c := range candidates {
		out[i] = clipmodel.FallbackScoredSegment(c, "invalid prompt")
	}
	return out
}
