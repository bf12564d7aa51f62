package media

import (
	"context"
	"fmt"
	"os/exec"
)

// FFmpegExtractor implements AudioExtractor by shelling out to ffmpeg,
// the way birdnet-go's HLS streaming handler drives ffmpeg via
// exec.CommandContext rather than binding a codec library directly.
type FFmpegExtractor struct {
	// BinaryPath is the ffmpeg executable. Defaults to "ffmpeg" (resolved
	// via PATH) when empty.
	BinaryPath string
}

// Extract decodes sourcePath's audio track to a mono, 16kHz WAV file at
// outputPath, overwriting any existing file there.
func (e FFmpegExtractor) Extract(ctx context.Context, sourcePath, outputPath string) error {
	bin := e.BinaryPath
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-y",
		"-loglevel", "error",
		"-i", sourcePath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outputPath,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("media: ffmpeg extraction failed: %w: %s", err, out)
	}
	return nil
}
