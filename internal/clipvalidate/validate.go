// Package clipvalidate implements the Validator (component E): overlap
// removal followed by Jaccard-similarity dedup over Scored Segments sorted
// by final_score descending, so that higher-scoring clips always win ties
// (§4.6).
package clipvalidate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// DefaultJaccardThreshold is the similarity at or above which two segments
// are considered semantic duplicates.
const DefaultJaccardThreshold = 0.7

// Config holds the Validator's tunables.
type Config struct {
	// JaccardThreshold is the similarity at or above which a later,
	// lower-scoring segment is rejected as a duplicate (strict: a segment
	// exactly at the threshold is dropped). Default: 0.7.
	JaccardThreshold float64
}

// WithDefaults returns a copy of cfg with zero-value fields replaced by
// spec defaults.
func (c Config) WithDefaults() Config {
	if c.JaccardThreshold <= 0 {
		c.JaccardThreshold = DefaultJaccardThreshold
	}
	return c
}

// Validate walks segments (assumed pre-sorted by final_score descending,
// as internal/scoring's Engine.Score already returns them) and keeps a
// segment only if it is time-disjoint from every already-kept segment and
// not a near-duplicate of one by text similarity.
func Validate(segments []clipmodel.ScoredSegment, cfg Config) []clipmodel.ScoredSegment {
	cfg = cfg.WithDefaults()

	kept := make([]clipmodel.ScoredSegment, 0, len(segments))
	keptTokens := make([]map[string]struct{}, 0, len(segments))

	for _, candidate := range segments {
		if overlapsAny(candidate, kept) {
			continue
		}

		tokens := tokenize(candidate.Text)
		if duplicateOfAny(tokens, keptTokens, cfg.JaccardThreshold) {
			continue
		}

		kept = append(kept, candidate)
		keptTokens = append(keptTokens, tokens)
	}

	return kept
}

func overlapsAny(candidate clipmodel.ScoredSegment, kept []clipmodel.ScoredSegment) bool {
	for _, k := range kept {
		if intersects(candidate.Start, candidate.End, k.Start, k.End) {
			return true
		}
	}
	return false
}

func intersects(aStart, aEnd, bStart, bEnd float64) bool {
	return aStart < bEnd && bStart < aEnd
}

func duplicateOfAny(tokens map[string]struct{}, kept []map[string]struct{}, threshold float64) bool {
	for _, k := range kept {
		if jaccard(tokens, k) >= threshold {
			return true
		}
	}
	return false
}

var wordPattern = regexp.MustCompile(`[a-z0-9']+`)

// tokenize lower-cases text and strips punctuation, returning the set of
// distinct words.
func tokenize(text string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// jaccard computes |intersection| / |union| over two token sets. Two empty
// sets are defined as similarity 0 (no basis for comparison, so they are
// never treated as duplicates of each other).
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// SortByFinalScore sorts segments by final_score descending, breaking ties
// by (start, end) ascending, matching the ordering internal/scoring already
// produces. Exported so callers that assemble segments from a source other
// than the Scoring Engine (e.g. a resumed checkpoint) can reestablish the
// order Validate assumes.
func SortByFinalScore(segments []clipmodel.ScoredSegment) {
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].Score.FinalScore != segments[j].Score.FinalScore {
			return segments[i].Score.FinalScore > segments[j].Score.FinalScore
		}
		if segments[i].Start != segments[j].Start {
			return segments[i].Start < segments[j].Start
		}
		return segments[i].End < segments[j].End
	})
}
