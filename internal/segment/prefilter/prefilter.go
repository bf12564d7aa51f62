// Package prefilter ranks and trims candidate segments using cheap local
// features before they reach the remote scoring engine (component C). The
// filter is pure and side-effect free; the emotional-keyword lexicon is
// cached in-process via [go-cache] so it is never rebuilt within a run.
package prefilter

import (
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// DefaultCount is the default number of candidates retained by [Filter].
const DefaultCount = 20

// lexicon is the fixed set of emotional-intensity keywords used for the
// keyword-hit-count feature.
var lexicon = []string{
	"never", "always", "nobody", "shocked", "secret", "truth",
	"lie", "wrong", "right", "mistake", "regret",
}

// lexiconCacheKey is the single key under which the built lexicon set is
// cached; there is only ever one lexicon, so no per-call key derivation is
// needed.
const lexiconCacheKey = "emotional-keyword-set"

// lexiconCache holds the built keyword lookup set for the lifetime of the
// process, avoiding rebuilding a map[string]struct{} on every Filter call
// within a run. A long TTL is used since the lexicon is a compile-time
// constant; the cache exists for the lazy-build-once semantics, not for
// expiry.
var lexiconCache = gocache.New(24*time.Hour, 48*time.Hour)

func lexiconSet() map[string]struct{} {
	if cached, found := lexiconCache.Get(lexiconCacheKey); found {
		return cached.(map[string]struct{})
	}

	set := make(map[string]struct{}, len(lexicon))
	for _, w := range lexicon {
		set[w] = struct{}{}
	}
	lexiconCache.Set(lexiconCacheKey, set, gocache.DefaultExpiration)
	return set
}

// scored pairs a candidate with its computed local score, for sorting.
type scored struct {
	candidate clipmodel.CandidateSegment
	score     float64
}

// Filter returns the top n candidates from candidates ordered by a cheap
// local score, descending. Ties are broken by earlier start time. The
// result is always a subset of candidates and never longer than n.
func Filter(candidates []clipmodel.CandidateSegment, n int) []clipmodel.CandidateSegment {
	if n <= 0 {
		n = DefaultCount
	}

	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{candidate: c, score: localScore(c)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].candidate.Start < ranked[j].candidate.Start
	})

	if n > len(ranked) {
		n = len(ranked)
	}

	out := make([]clipmodel.CandidateSegment, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].candidate
	}
	return out
}

// localScore computes the cheap, side-effect-free heuristic score for a
// single candidate: duration fit, emotional-keyword density, sentence
// density, and pause density, each capped per §4.3.
func localScore(c clipmodel.CandidateSegment) float64 {
	var score float64

	dur := c.Duration()
	switch {
	case dur >= 20 && dur <= 60:
		score += 3.0
	case dur >= 15 && dur <= 75:
		score += 1.5
	}

	hits := keywordHits(c.Text)
	score += min(float64(hits)*0.5, 3.0)

	if dur > 0 {
		sentenceDensity := float64(c.Features.SentenceCount) / (dur / 10)
		score += min(sentenceDensity*0.8, 2.0)

		pauseDensity := float64(c.Features.PauseCount) / (dur / 10)
		score += min(pauseDensity*2.0, 2.0)
	}

	return score
}

func keywordHits(text string) int {
	set := lexiconSet()
	count := 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if _, ok := set[word]; ok {
			count++
		}
	}
	return count
}
