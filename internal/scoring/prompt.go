package scoring

import (
	"fmt"
	"strings"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// systemPromptTemplate is the base system instruction sent with every
// batch request. The candidate prompt template supplied in Config is
// appended so operators can tune tone/criteria without touching the
// JSON-only contract.
const systemPromptTemplate = `You are a short-form video clip scoring assistant.

Your task: score each candidate segment below on six dimensions, each in
the range 0-10: hook, retention, emotion, relatability, completion, and
platform_fit.

%s

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "results": [
    {
      "id": <segment id>,
      "hook_score": <0-10>,
      "retention_score": <0-10>,
      "emotion_score": <0-10>,
      "relatability_score": <0-10>,
      "completion_score": <0-10>,
      "platform_fit_score": <0-10>,
      "final_score": <0-100>,
      "verdict": "viral" | "maybe" | "skip",
      "strengths": ["..."],
      "weaknesses": ["..."],
      "first_three_seconds_quote": "...",
      "primary_emotion": "...",
      "optimal_platform": "..."
    }
  ]
}`

// buildSystemPrompt formats the system prompt with the operator-supplied
// scoring criteria.
func buildSystemPrompt(promptTemplate string) string {
	return fmt.Sprintf(systemPromptTemplate, strings.TrimSpace(promptTemplate))
}

// buildUserPrompt formats one batch of candidates into the user payload:
// each segment with its integer id, time bounds, and joined text.
func buildUserPrompt(batch []clipmodel.CandidateSegment) string {
	var sb strings.Builder
	sb.WriteString("Candidate segments:\n\n")
	for _, c := range batch {
		fmt.Fprintf(&sb, "id=%d start=%.2f end=%.2f duration=%.2f\n%s\n\n",
			c.ID, c.Start, c.End, c.Duration(), c.Text)
	}
	return sb.String()
}
