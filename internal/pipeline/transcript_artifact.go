package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clipforge/engine/pkg/clipmodel"
)

// writeTranscript persists a transcript artifact so a resumed run can
// reload it without re-invoking the external transcriber (§6: "the
// implementation may cache its own result").
func writeTranscript(path string, t clipmodel.Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("pipeline: marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("pipeline: write transcript artifact: %w", err)
	}
	return nil
}

func readTranscript(path string) (clipmodel.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return clipmodel.Transcript{}, fmt.Errorf("pipeline: read transcript artifact: %w", err)
	}
	var t clipmodel.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return clipmodel.Transcript{}, fmt.Errorf("pipeline: parse transcript artifact: %w", err)
	}
	return t, nil
}
