package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipforge/engine/pkg/clipmodel"
)

func newTestSource(t *testing.T, dir string) clipmodel.Source {
	t.Helper()
	path := filepath.Join(dir, "talk.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0o600))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return clipmodel.Source{Path: path, Size: info.Size()}
}

func TestFileStore_LoadWithNoPriorState(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "cache"), nil)
	source := newTestSource(t, dir)

	state, err := store.Load(context.Background(), source)
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestFileStore_SaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "cache"), nil)
	source := newTestSource(t, dir)

	state := clipmodel.PipelineState{
		LastStage: clipmodel.StageSegmentation,
		Segmentation: &clipmodel.SegmentationState{
			StageArtifact: clipmodel.StageArtifact{Completed: true},
			Candidates:    []clipmodel.CandidateSegment{{ID: 1, Start: 0, End: 30}},
		},
	}

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, source, state, clipmodel.StageSegmentation))

	loaded, err := store.Load(ctx, source)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, clipmodel.StageSegmentation, loaded.LastStage)
	require.Len(t, loaded.Segmentation.Candidates, 1)
}

func TestFileStore_LoadRejectsFingerprintMismatch(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "cache"), nil)
	source := newTestSource(t, dir)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, source, clipmodel.PipelineState{LastStage: clipmodel.StageScoring}, clipmodel.StageScoring))

	// Same path, different size: simulates a re-encoded or replaced file.
	changed := clipmodel.Source{Path: source.Path, Size: source.Size + 1}
	loaded, err := store.Load(ctx, changed)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestFileStore_LoadTreatsCorruptFileAsNoState(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	store := NewFileStore(cacheDir, nil)
	source := newTestSource(t, dir)

	require.NoError(t, os.MkdirAll(cacheDir, 0o700))
	path := store.pathFor(source)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	state, err := store.Load(context.Background(), source)
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestFileStore_Clear(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "cache"), nil)
	source := newTestSource(t, dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, source, clipmodel.PipelineState{LastStage: clipmodel.StageScoring}, clipmodel.StageScoring))
	require.NoError(t, store.Clear(ctx, source))

	state, err := store.Load(ctx, source)
	require.NoError(t, err)
	require.Nil(t, state)

	// Clearing an already-absent record is not an error.
	require.NoError(t, store.Clear(ctx, source))
}

func TestFileStore_HasCompletedStage(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "cache"), nil)

	audioPath := filepath.Join(dir, "audio.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFF"), 0o600))

	state := &clipmodel.PipelineState{
		AudioExtraction: &clipmodel.AudioExtractionState{
			StageArtifact: clipmodel.StageArtifact{Completed: true},
			AudioPath:     audioPath,
		},
	}
	require.True(t, store.HasCompletedStage(state, clipmodel.StageAudio))

	// Remove the referenced file: stage becomes invalid.
	require.NoError(t, os.Remove(audioPath))
	require.False(t, store.HasCompletedStage(state, clipmodel.StageAudio))

	require.False(t, store.HasCompletedStage(state, clipmodel.StageTranscript))
	require.False(t, store.HasCompletedStage(nil, clipmodel.StageAudio))
}
