// Package segment builds candidate segments from a transcript (component
// B): overlapping sentence windows and pause-bounded windows, merged into
// one deduplicated, deterministic candidate pool.
package segment

import (
	"regexp"
	"strings"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// Config bounds candidate duration and pause detection. Zero-value fields
// are replaced with the spec's defaults by [Config.withDefaults].
type Config struct {
	// MinDuration and MaxDuration bound candidate duration in seconds.
	// Defaults: 10, 75.
	MinDuration float64
	MaxDuration float64

	// PauseThreshold is the minimum inter-sentence gap, in seconds, that
	// is treated as a pause-window boundary. Default: 1.0.
	PauseThreshold float64
}

func (c Config) withDefaults() Config {
	if c.MinDuration <= 0 {
		c.MinDuration = 10
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 75
	}
	if c.PauseThreshold <= 0 {
		c.PauseThreshold = 1.0
	}
	return c
}

// sentenceTerminators matches the punctuation treated as a sentence
// boundary when splitting transcript text for window construction.
var sentenceTerminators = regexp.MustCompile(`[.!?]+\s*`)

// sentence is one sentence-level unit of a transcript, carried with its
// absolute time bounds so windows can be joined back into candidate text.
type sentence struct {
	start, end float64
	text       string
}

// Build produces the merged candidate pool for a transcript: all
// sentence-window candidates followed by all pause-window candidates,
// with identical time ranges collapsed to one entry. The result is
// deterministic given the same transcript and config.
func Build(t clipmodel.Transcript, cfg Config) []clipmodel.CandidateSegment {
	cfg = cfg.withDefaults()

	sentences := splitSentences(t)
	if len(sentences) == 0 {
		return nil
	}

	var candidates []clipmodel.CandidateSegment
	candidates = append(candidates, sentenceWindows(sentences, cfg)...)
	candidates = append(candidates, pauseWindows(sentences, cfg)...)

	return dedupAndAssignIDs(candidates)
}

// splitSentences flattens a transcript's segments into sentence-level
// units using the terminator regex. A transcript segment with no
// terminator becomes a single sentence unit spanning the whole segment.
func splitSentences(t clipmodel.Transcript) []sentence {
	var out []sentence
	for _, seg := range t.Segments {
		parts := sentenceTerminators.Split(seg.Text, -1)
		nonEmpty := make([]string, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				nonEmpty = append(nonEmpty, strings.TrimSpace(p))
			}
		}
		if len(nonEmpty) == 0 {
			continue
		}

		span := seg.Duration()
		per := span / float64(len(nonEmpty))
		cursor := seg.Start
		for _, p := range nonEmpty {
			out = append(out, sentence{start: cursor, end: cursor + per, text: p})
			cursor += per
		}
	}
	return out
}

// sentenceWindows implements the overlapping sliding-window strategy: a
// window of consecutive sentences advances by one sentence at a time, is
// emitted as soon as its joined duration first enters [MinDuration,
// MaxDuration], and is dropped (not advanced further from that start) once
// it exceeds MaxDuration.
func sentenceWindows(sentences []sentence, cfg Config) []clipmodel.CandidateSegment {
	var out []clipmodel.CandidateSegment

	for i := range sentences {
		for j := i; j < len(sentences); j++ {
			dur := sentences[j].end - sentences[i].start
			if dur > cfg.MaxDuration {
				break
			}
			if dur >= cfg.MinDuration {
				out = append(out, buildCandidate(sentences[i:j+1], clipmodel.SegmentKindSentenceWindow, cfg))
				break
			}
		}
	}
	return out
}

// pauseWindows implements the pause-boundary strategy: boundaries are
// detected at inter-sentence gaps exceeding PauseThreshold, and contiguous
// spans between pauses become candidates subject to the duration band.
func pauseWindows(sentences []sentence, cfg Config) []clipmodel.CandidateSegment {
	var out []clipmodel.CandidateSegment

	start := 0
	for i := 1; i <= len(sentences); i++ {
		atPause := i == len(sentences) || sentences[i].start-sentences[i-1].end > cfg.PauseThreshold
		if !atPause {
			continue
		}

		span := sentences[start:i]
		dur := span[len(span)-1].end - span[0].start
		if dur >= cfg.MinDuration && dur <= cfg.MaxDuration {
			out = append(out, buildCandidate(span, clipmodel.SegmentKindPauseWindow, cfg))
		}
		start = i
	}
	return out
}

func buildCandidate(span []sentence, kind clipmodel.SegmentKind, cfg Config) clipmodel.CandidateSegment {
	var sb strings.Builder
	pauseCount := 0
	for i, s := range span {
		if i > 0 {
			sb.WriteByte(' ')
			if s.start-span[i-1].end > cfg.PauseThreshold {
				pauseCount++
			}
		}
		sb.WriteString(s.text)
	}

	return clipmodel.CandidateSegment{
		Kind:  kind,
		Start: span[0].start,
		End:   span[len(span)-1].end,
		Text:  sb.String(),
		Features: clipmodel.Features{
			SentenceCount: len(span),
			PauseCount:    pauseCount,
		},
	}
}

// dedupAndAssignIDs collapses candidates with identical [start, end] time
// ranges to one entry (preferring the first occurrence) and assigns stable
// integer IDs in the resulting order.
func dedupAndAssignIDs(candidates []clipmodel.CandidateSegment) []clipmodel.CandidateSegment {
	seen := make(map[[2]float64]bool, len(candidates))
	out := make([]clipmodel.CandidateSegment, 0, len(candidates))

	for _, c := range candidates {
		key := [2]float64{c.Start, c.End}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}

	for i := range out {
		out[i].ID = i
	}
	return out
}
