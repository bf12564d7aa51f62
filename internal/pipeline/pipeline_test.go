package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/engine/internal/checkpoint"
	"github.com/clipforge/engine/internal/clipvalidate"
	"github.com/clipforge/engine/internal/resilience"
	"github.com/clipforge/engine/internal/scoring"
	"github.com/clipforge/engine/internal/segment"
	"github.com/clipforge/engine/internal/spill"
	"github.com/clipforge/engine/pkg/clipmodel"
)

type fakeExtractor struct{ calls int }

func (f *fakeExtractor) Extract(ctx context.Context, sourcePath, outputPath string) error {
	f.calls++
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := wav.NewEncoder(out, 16000, 16, 1, 1)
	buf := &audio.IntBuffer{Format: &audio.Format{SampleRate: 16000, NumChannels: 1}, Data: []int{0, 10, -10, 20}}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

type fakeTranscriber struct {
	calls      int
	transcript clipmodel.Transcript
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (clipmodel.Transcript, error) {
	f.calls++
	return f.transcript, nil
}

type fakeScorer struct{ calls int }

func (f *fakeScorer) ScoreBatch(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	f.calls++
	return `{"results":[{"id":0,"final_score":80,"verdict":"viral"},{"id":1,"final_score":60,"verdict":"maybe"}]}`, nil
}

func testTranscript() clipmodel.Transcript {
	return clipmodel.Transcript{Segments: []clipmodel.TranscriptSegment{
		{Start: 0, End: 15, Text: "This is the first part of the story."},
		{Start: 15, End: 35, Text: "And here is the shocking secret truth nobody expected."},
		{Start: 35, End: 50, Text: "Finally, the conclusion wraps everything up nicely."},
	}}
}

func newTestOrchestrator(t *testing.T, extractor *fakeExtractor, transcriber *fakeTranscriber, scorer *fakeScorer) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()

	store := checkpoint.NewFileStore(dir+"/checkpoints", nil)
	group := resilience.NewFallbackGroup[scoring.Scorer](scorer, "primary", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 3},
	})
	engine := scoring.NewEngine(group, spill.NewFileWriter(dir+"/spill"), nil)

	cfg := Config{
		Checkpoint:        store,
		AudioExtractor:    extractor,
		Transcriber:       transcriber,
		Engine:            engine,
		Segment:           segment.Config{},
		Scoring:           scoring.Config{PromptTemplate: "score these clips for virality"},
		Validate:          clipvalidate.Config{},
		RequireCredential: false,
		WorkDir:           dir + "/work",
	}

	return New(cfg, nil), dir
}

func TestOrchestrator_Run_FullPipelineProducesValidatedClips(t *testing.T) {
	extractor := &fakeExtractor{}
	transcriber := &fakeTranscriber{transcript: testTranscript()}
	scorer := &fakeScorer{}

	o, _ := newTestOrchestrator(t, extractor, transcriber, scorer)
	source := clipmodel.Source{Path: "/videos/episode1.mp4", Size: 1024}

	result, err := o.Run(context.Background(), source)
	require.NoError(t, err)
	require.NotEmpty(t, result.ScoredSegments)
	require.NotEmpty(t, result.ValidatedClips)
	require.Equal(t, 1, extractor.calls)
	require.Equal(t, 1, transcriber.calls)
}

func TestOrchestrator_Run_ResumeSkipsCompletedStages(t *testing.T) {
	extractor := &fakeExtractor{}
	transcriber := &fakeTranscriber{transcript: testTranscript()}
	scorer := &fakeScorer{}

	o, _ := newTestOrchestrator(t, extractor, transcriber, scorer)
	source := clipmodel.Source{Path: "/videos/episode1.mp4", Size: 1024}

	_, err := o.Run(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, 1, extractor.calls)
	require.Equal(t, 1, transcriber.calls)

	_, err = o.Run(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, 1, extractor.calls, "resumed run must not re-extract audio")
	require.Equal(t, 1, transcriber.calls, "resumed run must not re-transcribe")
}

func TestOrchestrator_ClearCache_ForcesFreshRun(t *testing.T) {
	extractor := &fakeExtractor{}
	transcriber := &fakeTranscriber{transcript: testTranscript()}
	scorer := &fakeScorer{}

	o, _ := newTestOrchestrator(t, extractor, transcriber, scorer)
	source := clipmodel.Source{Path: "/videos/episode1.mp4", Size: 1024}

	_, err := o.Run(context.Background(), source)
	require.NoError(t, err)

	require.NoError(t, o.ClearCache(context.Background(), source))

	_, err = o.Run(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, 2, extractor.calls, "cleared cache must force re-extraction")
}

func TestOrchestrator_Run_ExtractorFailureAbortsWithStageError(t *testing.T) {
	extractor := &fakeExtractor{}
	transcriber := &fakeTranscriber{transcript: testTranscript()}
	scorer := &fakeScorer{}

	o, dir := newTestOrchestrator(t, extractor, transcriber, scorer)
	_ = dir
	o.cfg.AudioExtractor = failingExtractor{}

	source := clipmodel.Source{Path: "/videos/episode1.mp4", Size: 1024}
	_, err := o.Run(context.Background(), source)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, clipmodel.StageAudio, stageErr.Stage)
}

type failingExtractor struct{}

func (failingExtractor) Extract(ctx context.Context, sourcePath, outputPath string) error {
	return errAlwaysFails
}

var errAlwaysFails = errors.New("extraction failed")
