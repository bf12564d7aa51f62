package scoring

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// batchResponse is the expected JSON structure returned by a scoring
// request: one result per requested segment id.
type batchResponse struct {
	Results []segmentResult `json:"results"`
}

// segmentResult is one element of batchResponse.Results. Missing fields
// resolve to their zero value (0.0 for scores, "" for text) per §4.4 step
// 5; the caller assigns the "skip" verdict default when Verdict is empty.
type segmentResult struct {
	ID                int      `json:"id"`
	HookScore         float64  `json:"hook_score"`
	RetentionScore    float64  `json:"retention_score"`
	EmotionScore      float64  `json:"emotion_score"`
	RelatabilityScore float64  `json:"relatability_score"`
	CompletionScore   float64  `json:"completion_score"`
	PlatformFitScore  float64  `json:"platform_fit_score"`
	FinalScore        *float64 `json:"final_score"`
	Verdict           string   `json:"verdict"`
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	FirstThreeWords   string   `json:"first_three_seconds_quote"`
	PrimaryEmotion    string   `json:"primary_emotion"`
	OptimalPlatform   string   `json:"optimal_platform"`
}

// fallbackObjectPattern is the last-resort regex used when brace-matching
// fails to find a balanced object: the greedy span from the first '{' to
// the last '}'.
var fallbackObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON locates and parses the single JSON object embedded in a
// model response, tolerating markdown code fences, leading/trailing prose,
// and nested objects (§4.4 step 5).
//
// It first strips markdown fences, then locates the first '{' and finds
// its matching '}' by brace-counting; if no balanced object is found it
// falls back to a regex match from the first '{' to the last '}'.
func ExtractJSON(content string) (*batchResponse, error) {
	cleaned := stripMarkdownFences(content)

	object := extractBalancedObject(cleaned)
	if object == "" {
		if m := fallbackObjectPattern.FindString(cleaned); m != "" {
			object = m
		}
	}
	if object == "" {
		return nil, fmt.Errorf("scoring: no JSON object found in response")
	}

	var resp batchResponse
	if err := json.Unmarshal([]byte(object), &resp); err != nil {
		return nil, fmt.Errorf("scoring: parse response: %w", err)
	}
	return &resp, nil
}

// stripMarkdownFences removes optional ```json ... ``` (or bare ``` ...
// ```) fences that some models wrap their JSON output in.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

// extractBalancedObject finds the first '{' in s and returns the
// substring up to its matching '}', counting nested braces and ignoring
// braces inside double-quoted strings. Returns "" if no balanced object is
// found.
func extractBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
