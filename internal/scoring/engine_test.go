package scoring

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipforge/engine/internal/resilience"
	"github.com/clipforge/engine/internal/spill"
	"github.com/clipforge/engine/pkg/clipmodel"
)

// fakeScorer is a hand-written, scriptable Scorer fake, in the style of
// pkg/provider/llm/mock's hand-written-struct-over-mocking-framework
// approach.
type fakeScorer struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (f *fakeScorer) ScoreBatch(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func newTestGroup(primary Scorer) *resilience.FallbackGroup[Scorer] {
	return resilience.NewFallbackGroup[Scorer](primary, "primary", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: time.Millisecond},
	})
}

func newTestEngine(t *testing.T, group *resilience.FallbackGroup[Scorer]) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	e := NewEngine(group, spill.NewFileWriter(dir), nil)
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	e.randFloat = func() float64 { return 0 }
	return e, dir
}

func candidates(n int) []clipmodel.CandidateSegment {
	out := make([]clipmodel.CandidateSegment, n)
	for i := range out {
		out[i] = clipmodel.CandidateSegment{ID: i, Start: float64(i * 30), End: float64(i*30 + 20), Text: "hello world"}
	}
	return out
}

func TestEngine_Score_HappyPath(t *testing.T) {
	scorer := &fakeScorer{responses: []string{
		`{"results":[{"id":0,"hook_score":8,"final_score":70,"verdict":"viral"}]}`,
	}}
	e, _ := newTestEngine(t, newTestGroup(scorer))

	cands := candidates(1)
	result, err := e.Score(context.Background(), cands, Config{PromptTemplate: "score for virality"}, cands)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, clipmodel.VerdictViral, result[0].Score.Verdict)
	require.Equal(t, 70.0, result[0].Score.FinalScore)
}

func TestEngine_Score_ZeroCandidatesMakesNoCall(t *testing.T) {
	scorer := &fakeScorer{}
	e, _ := newTestEngine(t, newTestGroup(scorer))

	result, err := e.Score(context.Background(), nil, Config{PromptTemplate: "score for virality"}, nil)
	require.NoError(t, err)
	require.Empty(t, result)
	require.Equal(t, 0, scorer.calls)
}

func TestEngine_Score_MissingResultFallsBack(t *testing.T) {
	scorer := &fakeScorer{responses: []string{
		`{"results":[{"id":0,"hook_score":8,"final_score":70,"verdict":"viral"}]}`,
	}}
	e, _ := newTestEngine(t, newTestGroup(scorer))

	cands := candidates(2)
	result, err := e.Score(context.Background(), cands, Config{PromptTemplate: "score for virality", BatchSize: 2}, cands)
	require.NoError(t, err)
	require.Len(t, result, 2)

	var sawFallback bool
	for _, r := range result {
		if r.CandidateSegment.ID == 1 {
			require.Equal(t, clipmodel.VerdictSkip, r.Score.Verdict)
			require.Contains(t, r.Score.Weaknesses, "AI analysis failed")
			sawFallback = true
		}
	}
	require.True(t, sawFallback)
}

func TestEngine_Score_UnparseableResponseFallsBackWholeBatch(t *testing.T) {
	scorer := &fakeScorer{responses: []string{"not json at all"}}
	e, _ := newTestEngine(t, newTestGroup(scorer))

	cands := candidates(2)
	result, err := e.Score(context.Background(), cands, Config{PromptTemplate: "score for virality", BatchSize: 2}, cands)
	require.NoError(t, err)
	require.Len(t, result, 2)
	for _, r := range result {
		require.Equal(t, clipmodel.VerdictSkip, r.Score.Verdict)
	}
}

func TestEngine_Score_LongCooldownSpillsAndReturnsErrSpilled(t *testing.T) {
	scorer := &fakeScorer{errs: []error{
		&RateLimitError{RetryAfter: 3600 * time.Second, HasRetryAfter: true},
	}}
	e, dir := newTestEngine(t, newTestGroup(scorer))

	cands := candidates(1)
	cfg := Config{PromptTemplate: "score for virality", MaxCooldownThreshold: 60 * time.Second}
	result, err := e.Score(context.Background(), cands, cfg, cands)
	require.Nil(t, result)
	require.ErrorIs(t, err, ErrSpilled)

	entries, readErr := readDir(dir)
	require.NoError(t, readErr)
	require.NotEmpty(t, entries)
}

func TestEngine_Score_ShortCooldownRetriesThenSucceeds(t *testing.T) {
	scorer := &fakeScorer{
		errs: []error{&RateLimitError{RetryAfter: 2 * time.Second, HasRetryAfter: true}, nil},
		responses: []string{
			"",
			`{"results":[{"id":0,"final_score":50,"verdict":"maybe"}]}`,
		},
	}
	e, _ := newTestEngine(t, newTestGroup(scorer))

	cands := candidates(1)
	cfg := Config{PromptTemplate: "score for virality", MaxCooldownThreshold: 60 * time.Second}
	result, err := e.Score(context.Background(), cands, cfg, cands)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, clipmodel.VerdictMaybe, result[0].Score.Verdict)
}

func TestEngine_Score_SortedByFinalScoreDescending(t *testing.T) {
	scorer := &fakeScorer{responses: []string{
		`{"results":[{"id":0,"final_score":40},{"id":1,"final_score":90}]}`,
	}}
	e, _ := newTestEngine(t, newTestGroup(scorer))

	cands := candidates(2)
	result, err := e.Score(context.Background(), cands, Config{PromptTemplate: "score for virality", BatchSize: 2}, cands)
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, 90.0, result[0].Score.FinalScore)
	require.Equal(t, 40.0, result[1].Score.FinalScore)
}

func readDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}
