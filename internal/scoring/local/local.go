// Package local implements an on-device scoring.Scorer: the same cheap
// heuristic features the heuristic pre-filter (internal/segment/prefilter)
// ranks candidates with, reused here to produce full six-dimension score
// reports without a network round trip. It exists so a FallbackGroup can be
// configured local-primary/remote-fallback per §4.4's circuit breaker
// clause.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Scorer is a deterministic, local scoring.Scorer.
type Scorer struct{}

// New constructs a local Scorer.
func New() *Scorer { return &Scorer{} }

var segmentLinePattern = regexp.MustCompile(`(?m)^id=(\d+) start=([\d.]+) end=([\d.]+) duration=([\d.]+)\n(.*)$`)

type parsedSegment struct {
	id       int
	start    float64
	end      float64
	duration float64
	text     string
}

// ScoreBatch implements scoring.Scorer. It re-parses the engine's
// buildUserPrompt layout (one "id=.. start=.. end=.. duration=.." line
// followed by the segment text) and returns the same JSON contract a
// remote model would, so ExtractJSON needs no backend-specific branch.
func (s *Scorer) ScoreBatch(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	segments, err := parseUserPrompt(userPrompt)
	if err != nil {
		return "", fmt.Errorf("local: %w", err)
	}

	type result struct {
		ID                int      `json:"id"`
		HookScore         float64  `json:"hook_score"`
		RetentionScore    float64  `json:"retention_score"`
		EmotionScore      float64  `json:"emotion_score"`
		RelatabilityScore float64  `json:"relatability_score"`
		CompletionScore   float64  `json:"completion_score"`
		PlatformFitScore  float64  `json:"platform_fit_score"`
		Verdict           string   `json:"verdict"`
		Weaknesses        []string `json:"weaknesses,omitempty"`
	}
	type response struct {
		Results []result `json:"results"`
	}

	resp := response{Results: make([]result, len(segments))}
	for i, seg := range segments {
		hook, retention, emotion, relatability, completion, platform := heuristicScores(seg)
		resp.Results[i] = result{
			ID:                seg.id,
			HookScore:         hook,
			RetentionScore:    retention,
			EmotionScore:      emotion,
			RelatabilityScore: relatability,
			CompletionScore:   completion,
			PlatformFitScore:  platform,
			Verdict:           verdictFor(hook, retention, emotion),
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("local: marshal result: %w", err)
	}
	return string(data), nil
}

func parseUserPrompt(userPrompt string) ([]parsedSegment, error) {
	matches := segmentLinePattern.FindAllStringSubmatch(userPrompt, -1)
	if matches == nil {
		return nil, fmt.Errorf("no candidate segments found in prompt")
	}

	out := make([]parsedSegment, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		start, _ := strconv.ParseFloat(m[2], 64)
		end, _ := strconv.ParseFloat(m[3], 64)
		duration, _ := strconv.ParseFloat(m[4], 64)
		out = append(out, parsedSegment{id: id, start: start, end: end, duration: duration, text: strings.TrimSpace(m[5])})
	}
	return out, nil
}

var emotionalKeywords = []string{
	"never", "always", "nobody", "shocked", "secret", "truth",
	"lie", "wrong", "right", "mistake", "regret",
}

func keywordHits(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, w := range emotionalKeywords {
		count += strings.Count(lower, w)
	}
	return count
}

// heuristicScores derives the six component scores from duration fit and
// keyword density alone, clamped to [0, 10]. It is deliberately cruder than
// a model's judgment — it exists to keep the pipeline responsive when the
// remote path is unavailable, not to replace it.
func heuristicScores(seg parsedSegment) (hook, retention, emotion, relatability, completion, platform float64) {
	durationFit := 0.0
	switch {
	case seg.duration >= 20 && seg.duration <= 60:
		durationFit = 10
	case seg.duration >= 15 && seg.duration <= 75:
		durationFit = 6
	default:
		durationFit = 3
	}

	hits := float64(keywordHits(seg.text))
	keywordScore := min(hits*2.5, 10)

	hook = min((durationFit+keywordScore)/2, 10)
	retention = durationFit
	emotion = keywordScore
	relatability = min(keywordScore*0.8, 10)
	completion = durationFit
	platform = 5.0
	return
}

func verdictFor(hook, retention, emotion float64) string {
	avg := (hook + retention + emotion) / 3
	switch {
	case avg >= 7:
		return "viral"
	case avg >= 4:
		return "maybe"
	default:
		return "skip"
	}
}
