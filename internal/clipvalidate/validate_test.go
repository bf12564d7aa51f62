package clipvalidate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipforge/engine/pkg/clipmodel"
)

func seg(id int, start, end, finalScore float64, text string) clipmodel.ScoredSegment {
	return clipmodel.ScoredSegment{
		CandidateSegment: clipmodel.CandidateSegment{ID: id, Start: start, End: end, Text: text},
		Score:            clipmodel.ScoreReport{FinalScore: finalScore},
	}
}

func TestValidate_OverlappingClipsKeepHigherScore(t *testing.T) {
	segments := []clipmodel.ScoredSegment{
		seg(0, 0, 30, 90, "the quick brown fox jumps"),
		seg(1, 20, 50, 60, "completely different words here"),
	}

	out := Validate(segments, Config{})
	require.Len(t, out, 1)
	require.Equal(t, 0, out[0].ID)
}

func TestValidate_DisjointClipsBothSurvive(t *testing.T) {
	segments := []clipmodel.ScoredSegment{
		seg(0, 0, 30, 90, "the quick brown fox"),
		seg(1, 40, 70, 60, "a totally unrelated sentence"),
	}

	out := Validate(segments, Config{})
	require.Len(t, out, 2)
}

func TestValidate_SemanticDuplicateRemoved(t *testing.T) {
	segments := []clipmodel.ScoredSegment{
		seg(0, 0, 30, 90, "never tell anyone the secret truth"),
		seg(1, 100, 130, 60, "never tell anyone the secret truth again"),
	}

	out := Validate(segments, Config{JaccardThreshold: 0.7})
	require.Len(t, out, 1)
	require.Equal(t, 0, out[0].ID)
}

func TestValidate_DissimilarTextBothSurvive(t *testing.T) {
	segments := []clipmodel.ScoredSegment{
		seg(0, 0, 30, 90, "apples oranges bananas grapes"),
		seg(1, 100, 130, 60, "rockets engines fuel tanks"),
	}

	out := Validate(segments, Config{})
	require.Len(t, out, 2)
}

func TestValidate_JaccardExactlyAtThresholdIsDropped(t *testing.T) {
	// 14 shared words out of 17 distinct words per side: 14/(17+17-14) = 0.7 exactly.
	shared := "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12 word13 word14"
	segments := []clipmodel.ScoredSegment{
		seg(0, 0, 30, 90, shared+" a1 a2 a3"),
		seg(1, 100, 130, 60, shared+" b1 b2 b3"),
	}

	require.Equal(t, 0.7, jaccard(tokenize(segments[0].Text), tokenize(segments[1].Text)))

	out := Validate(segments, Config{JaccardThreshold: 0.7})
	require.Len(t, out, 1)
	require.Equal(t, 0, out[0].ID)
}

func TestJaccard_IdenticalSetsIsOne(t *testing.T) {
	a := tokenize("hello world")
	b := tokenize("hello world")
	require.Equal(t, 1.0, jaccard(a, b))
}

func TestJaccard_EmptySetsAreNeverDuplicates(t *testing.T) {
	require.Equal(t, 0.0, jaccard(tokenize(""), tokenize("")))
}

func TestSortByFinalScore_TiesBrokenByStartThenEnd(t *testing.T) {
	segments := []clipmodel.ScoredSegment{
		seg(0, 10, 20, 50, "a"),
		seg(1, 5, 20, 50, "b"),
	}
	SortByFinalScore(segments)
	require.Equal(t, 1, segments[0].ID)
}
