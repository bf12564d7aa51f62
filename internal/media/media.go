// Package media defines the narrow, typed contracts for the two external
// collaborators the Orchestrator drives before its own stages (§6): audio
// extraction and transcription. Both are external tools; FFmpegExtractor and
// CommandTranscriber are thin adapters that shell out to them. The
// extractor's output is sanity-checked
// against a real WAV header before being handed to the transcriber, so a
// malformed extraction fails fast with a clear error instead of surfacing
// as an opaque transcription failure two stages later.
package media

import (
	"context"
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// AudioExtractor produces a mono PCM-bearing audio file from a source media
// path. Implementations are expected to shell out to (or bind) an external
// media tool; the core only consumes success/failure.
type AudioExtractor interface {
	Extract(ctx context.Context, sourcePath, outputPath string) error
}

// Transcriber produces a Transcript from an extracted audio file. The core
// treats the result as opaque beyond the documented clipmodel.Transcript
// shape; implementations may cache their own results.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (clipmodel.Transcript, error)
}

// ValidateWAVHeader opens path and confirms it parses as a valid WAV
// container with at least one PCM frame, without decoding the full sample
// buffer. It returns a descriptive error naming the extraction stage so a
// malformed upstream tool output is diagnosable without inspecting the
// transcription stage's own (unrelated) error surface.
func ValidateWAVHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("media: open extracted audio: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return fmt.Errorf("media: %q is not a valid WAV file", path)
	}
	if decoder.SampleRate == 0 || decoder.NumChans == 0 {
		return fmt.Errorf("media: %q has an empty or unreadable WAV header", path)
	}
	return nil
}
