package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: 16000, NumChannels: 1},
		Data:   []int{0, 100, -100, 200},
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestValidateWAVHeader_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	writeTestWAV(t, path)

	require.NoError(t, ValidateWAVHeader(path))
}

func TestValidateWAVHeader_NotAWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-audio.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file at all"), 0o600))

	require.Error(t, ValidateWAVHeader(path))
}

func TestValidateWAVHeader_MissingFile(t *testing.T) {
	require.Error(t, ValidateWAVHeader(filepath.Join(t.TempDir(), "missing.wav")))
}
