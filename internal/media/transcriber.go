package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// CommandTranscriber implements Transcriber by shelling out to an external
// speech-to-text binary (e.g. a whisper.cpp build) and parsing its stdout
// as a clipmodel.Transcript. The binary is expected to emit exactly that
// JSON shape — this adapter does no format translation, matching §6's
// "treated as opaque beyond the documented Transcript shape" contract.
type CommandTranscriber struct {
	// BinaryPath is the transcription executable.
	BinaryPath string

	// Args are passed before the audio path, e.g. ["--model", "base.en", "--output-json"].
	Args []string
}

// Transcribe runs the configured binary against audioPath and decodes its
// stdout as a Transcript.
func (t CommandTranscriber) Transcribe(ctx context.Context, audioPath string) (clipmodel.Transcript, error) {
	if t.BinaryPath == "" {
		return clipmodel.Transcript{}, fmt.Errorf("media: no transcriber binary configured")
	}

	args := append(append([]string{}, t.Args...), audioPath)
	cmd := exec.CommandContext(ctx, t.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return clipmodel.Transcript{}, fmt.Errorf("media: transcription command failed: %w: %s", err, stderr.String())
	}

	var transcript clipmodel.Transcript
	if err := json.Unmarshal(stdout.Bytes(), &transcript); err != nil {
		return clipmodel.Transcript{}, fmt.Errorf("media: parse transcription output: %w", err)
	}
	return transcript, nil
}
