// Package pipeline implements the Orchestrator (component F): it drives
// audio extraction, transcription, segmentation, scoring, and validation in
// order, consulting the checkpoint store at each stage boundary so a
// resumed run skips whatever already completed (§4.7).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/clipforge/engine/internal/checkpoint"
	"github.com/clipforge/engine/internal/clipvalidate"
	"github.com/clipforge/engine/internal/diagnostics"
	"github.com/clipforge/engine/internal/media"
	"github.com/clipforge/engine/internal/scoring"
	"github.com/clipforge/engine/internal/segment"
	"github.com/clipforge/engine/internal/segment/prefilter"
	"github.com/clipforge/engine/pkg/clipmodel"
)

// Config wires together the components the Orchestrator drives. Everything
// other than Checkpoint and Engine is an independently constructible,
// stateless component — the Orchestrator itself holds no scoring or
// segmentation state of its own.
type Config struct {
	Checkpoint     checkpoint.Store
	AudioExtractor media.AudioExtractor
	Transcriber    media.Transcriber
	Engine         *scoring.Engine
	Reporter       diagnostics.Reporter

	Segment  segment.Config
	Scoring  scoring.Config
	Validate clipvalidate.Config

	// RequireCredential controls whether the pre-flight validator rejects
	// a missing Scoring.Credential. Set false only when Engine is wired
	// with a local-only scorer that never makes a remote call.
	RequireCredential bool

	// WorkDir holds per-source extracted-audio and transcript artifacts.
	// Checkpoint records reference files under this directory.
	WorkDir string
}

// Orchestrator drives the pipeline's stage sequence for one source at a
// time. It is safe for concurrent use across distinct sources; a single
// source should only ever be driven by one Orchestrator.Run call at a time
// (the checkpoint file is not itself lock-protected, matching the
// single-writer scheduling model of §5).
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs an Orchestrator. A nil logger falls back to
// [slog.Default].
func New(cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = diagnostics.NewLogMetricsReporter(logger, nil, nil)
	}
	return &Orchestrator{cfg: cfg, logger: logger}
}

// StageError wraps a failure with the stage in which it occurred. Already
// completed stages are unaffected — the orchestrator never deletes prior
// checkpoints on failure (§4.7).
type StageError struct {
	Stage clipmodel.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Run drives the source through every uncompleted stage and returns the
// final scored and validated clip sets plus run statistics. A failure at
// any stage aborts the run with a [StageError]; stages already marked
// complete in the checkpoint remain cached for the next attempt.
func (o *Orchestrator) Run(ctx context.Context, source clipmodel.Source) (*clipmodel.RunResult, error) {
	state, err := o.cfg.Checkpoint.Load(ctx, source)
	if err != nil {
		return nil, &StageError{Stage: clipmodel.StageNone, Err: err}
	}
	if state == nil {
		state = &clipmodel.PipelineState{LastStage: clipmodel.StageNone}
	}

	audioPath, err := o.runAudioStage(ctx, source, state)
	if err != nil {
		return nil, err
	}

	transcript, err := o.runTranscriptStage(ctx, source, state, audioPath)
	if err != nil {
		return nil, err
	}

	candidates, err := o.runSegmentationStage(ctx, source, state, transcript)
	if err != nil {
		return nil, err
	}

	scored, err := o.runScoringStage(ctx, source, state, candidates)
	if err != nil {
		return nil, err
	}

	validated := o.runValidationStage(ctx, source, scored)

	stats := clipmodel.RunStats{}
	if ps, ok := o.statsSource(); ok {
		snap := ps.Snapshot()
		stats = clipmodel.RunStats{
			Batches:    snap.Batches,
			Retries:    snap.Retries,
			Spills:     snap.Spills,
			Errors:     snap.Errors,
			LatencyP50: snap.Latency.P50,
			LatencyP95: snap.Latency.P95,
		}
	}

	return &clipmodel.RunResult{
		ScoredSegments: scored,
		ValidatedClips: validated,
		Stats:          stats,
	}, nil
}

// statsSource extracts the PipelineStats from the configured Reporter, when
// it is the default [diagnostics.LogMetricsReporter]. Custom Reporter
// implementations simply report zero stats in the run result; their own
// sink is authoritative.
func (o *Orchestrator) statsSource() (*diagnostics.PipelineStats, bool) {
	lmr, ok := o.cfg.Reporter.(*diagnostics.LogMetricsReporter)
	if !ok || lmr.Stats == nil {
		return nil, false
	}
	return lmr.Stats, true
}

// ClearCache removes any persisted checkpoint state for source (the
// core's clear_cache(source) entry point, §6).
func (o *Orchestrator) ClearCache(ctx context.Context, source clipmodel.Source) error {
	return o.cfg.Checkpoint.Clear(ctx, source)
}

func (o *Orchestrator) runAudioStage(ctx context.Context, source clipmodel.Source, state *clipmodel.PipelineState) (string, error) {
	if o.cfg.Checkpoint.HasCompletedStage(state, clipmodel.StageAudio) {
		return state.AudioExtraction.AudioPath, nil
	}

	o.cfg.Reporter.StageStarted(ctx, "audio", source.Path)
	start := time.Now()

	audioPath := filepath.Join(o.cfg.WorkDir, artifactName(source, "audio.wav"))
	if err := os.MkdirAll(o.cfg.WorkDir, 0o700); err != nil {
		err = fmt.Errorf("create work dir: %w", err)
		o.cfg.Reporter.StageCompleted(ctx, "audio", source.Path, time.Since(start), err)
		return "", &StageError{Stage: clipmodel.StageAudio, Err: err}
	}

	if err := o.cfg.AudioExtractor.Extract(ctx, source.Path, audioPath); err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "audio", source.Path, time.Since(start), err)
		return "", &StageError{Stage: clipmodel.StageAudio, Err: err}
	}
	if err := media.ValidateWAVHeader(audioPath); err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "audio", source.Path, time.Since(start), err)
		return "", &StageError{Stage: clipmodel.StageAudio, Err: err}
	}

	state.AudioExtraction = &clipmodel.AudioExtractionState{
		StageArtifact: clipmodel.StageArtifact{Completed: true, Path: audioPath},
		AudioPath:     audioPath,
	}
	state.LastStage = clipmodel.StageAudio
	if err := o.cfg.Checkpoint.Save(ctx, source, *state, clipmodel.StageAudio); err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "audio", source.Path, time.Since(start), err)
		return "", &StageError{Stage: clipmodel.StageAudio, Err: err}
	}

	o.cfg.Reporter.StageCompleted(ctx, "audio", source.Path, time.Since(start), nil)
	return audioPath, nil
}

func (o *Orchestrator) runTranscriptStage(ctx context.Context, source clipmodel.Source, state *clipmodel.PipelineState, audioPath string) (clipmodel.Transcript, error) {
	if o.cfg.Checkpoint.HasCompletedStage(state, clipmodel.StageTranscript) {
		return readTranscript(state.Transcription.TranscriptPath)
	}

	o.cfg.Reporter.StageStarted(ctx, "transcript", source.Path)
	start := time.Now()

	transcript, err := o.cfg.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "transcript", source.Path, time.Since(start), err)
		return clipmodel.Transcript{}, &StageError{Stage: clipmodel.StageTranscript, Err: err}
	}

	transcriptPath := filepath.Join(o.cfg.WorkDir, artifactName(source, "transcript.json"))
	if err := writeTranscript(transcriptPath, transcript); err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "transcript", source.Path, time.Since(start), err)
		return clipmodel.Transcript{}, &StageError{Stage: clipmodel.StageTranscript, Err: err}
	}

	state.Transcription = &clipmodel.TranscriptionState{
		StageArtifact:  clipmodel.StageArtifact{Completed: true, Path: transcriptPath},
		TranscriptPath: transcriptPath,
		SegmentCount:   len(transcript.Segments),
	}
	state.LastStage = clipmodel.StageTranscript
	if err := o.cfg.Checkpoint.Save(ctx, source, *state, clipmodel.StageTranscript); err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "transcript", source.Path, time.Since(start), err)
		return clipmodel.Transcript{}, &StageError{Stage: clipmodel.StageTranscript, Err: err}
	}

	o.cfg.Reporter.StageCompleted(ctx, "transcript", source.Path, time.Since(start), nil)
	return transcript, nil
}

func (o *Orchestrator) runSegmentationStage(ctx context.Context, source clipmodel.Source, state *clipmodel.PipelineState, transcript clipmodel.Transcript) ([]clipmodel.CandidateSegment, error) {
	if o.cfg.Checkpoint.HasCompletedStage(state, clipmodel.StageSegmentation) {
		return state.Segmentation.Candidates, nil
	}

	o.cfg.Reporter.StageStarted(ctx, "segmentation", source.Path)
	start := time.Now()

	candidates := segment.Build(transcript, o.cfg.Segment)

	var sentenceCount, pauseCount int
	for _, c := range candidates {
		sentenceCount += c.Features.SentenceCount
		pauseCount += c.Features.PauseCount
	}

	state.Segmentation = &clipmodel.SegmentationState{
		StageArtifact: clipmodel.StageArtifact{Completed: true},
		Candidates:    candidates,
		SentenceCount: sentenceCount,
		PauseCount:    pauseCount,
	}
	state.LastStage = clipmodel.StageSegmentation
	if err := o.cfg.Checkpoint.Save(ctx, source, *state, clipmodel.StageSegmentation); err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "segmentation", source.Path, time.Since(start), err)
		return nil, &StageError{Stage: clipmodel.StageSegmentation, Err: err}
	}

	o.cfg.Reporter.StageCompleted(ctx, "segmentation", source.Path, time.Since(start), nil)
	return candidates, nil
}

func (o *Orchestrator) runScoringStage(ctx context.Context, source clipmodel.Source, state *clipmodel.PipelineState, candidates []clipmodel.CandidateSegment) ([]clipmodel.ScoredSegment, error) {
	if o.cfg.Checkpoint.HasCompletedStage(state, clipmodel.StageScoring) {
		return state.AIScoring.ScoredSegments, nil
	}

	o.cfg.Reporter.StageStarted(ctx, "scoring", source.Path)
	start := time.Now()

	cfg := o.cfg.Scoring.WithDefaults()
	var scored []clipmodel.ScoredSegment

	if err := scoring.Preflight(cfg, o.cfg.RequireCredential); err != nil {
		scored = scoring.FallbackForRejection(candidates)
	} else {
		preFiltered := prefilter.Filter(candidates, cfg.PreFilterCount)
		var err error
		scored, err = o.cfg.Engine.Score(ctx, candidates, cfg, preFiltered)
		if errors.Is(err, scoring.ErrSpilled) {
			// A long-cooldown spill is not a failure: the segments scored
			// before it are returned, and no scoring checkpoint is written.
			if ps, ok := o.statsSource(); ok {
				ps.IncrSpills()
			}
			o.cfg.Reporter.StageCompleted(ctx, "scoring", source.Path, time.Since(start), nil)
			return scored, nil
		}
		if err != nil {
			// Any other scoring failure aborts the run: the stage is
			// unfinished, no checkpoint is written, and already-completed
			// stages stay cached for the next attempt (§4.7).
			o.cfg.Reporter.StageCompleted(ctx, "scoring", source.Path, time.Since(start), err)
			return nil, &StageError{Stage: clipmodel.StageScoring, Err: err}
		}
	}

	var highQuality int
	for _, s := range scored {
		if s.Score.Verdict == clipmodel.VerdictViral || s.Score.Verdict == clipmodel.VerdictMaybe {
			highQuality++
		}
	}

	state.AIScoring = &clipmodel.ScoringState{
		StageArtifact:    clipmodel.StageArtifact{Completed: true},
		ScoredSegments:   scored,
		HighQualityCount: highQuality,
	}
	state.LastStage = clipmodel.StageScoring
	if err := o.cfg.Checkpoint.Save(ctx, source, *state, clipmodel.StageScoring); err != nil {
		o.cfg.Reporter.StageCompleted(ctx, "scoring", source.Path, time.Since(start), err)
		return nil, &StageError{Stage: clipmodel.StageScoring, Err: err}
	}

	o.cfg.Reporter.StageCompleted(ctx, "scoring", source.Path, time.Since(start), nil)
	return scored, nil
}

// runValidationStage is not checkpointed: it is cheap, pure, and re-derived
// from the (checkpointed) scored segments on every run, so resume never
// needs to persist its output separately.
func (o *Orchestrator) runValidationStage(ctx context.Context, source clipmodel.Source, scored []clipmodel.ScoredSegment) []clipmodel.ScoredSegment {
	o.cfg.Reporter.StageStarted(ctx, "validation", source.Path)
	start := time.Now()

	ordered := make([]clipmodel.ScoredSegment, len(scored))
	copy(ordered, scored)
	clipvalidate.SortByFinalScore(ordered)
	validated := clipvalidate.Validate(ordered, o.cfg.Validate)

	o.cfg.Reporter.StageCompleted(ctx, "validation", source.Path, time.Since(start), nil)
	return validated
}

func artifactName(source clipmodel.Source, suffix string) string {
	return fmt.Sprintf("%s-%s", filepath.Base(source.Path), suffix)
}
