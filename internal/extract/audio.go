package extract

import (
	"context"
	"fmt"

	"guidegen/internal/logger"
)

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Audio delegates to a speech-recognition collaborator. A failed or timed-out
// transcription degrades to a placeholder transcript describing the failure,
// so an audio upload always completes the pipeline with a defined response.
func Audio(t Transcriber, log *logger.Logger) Extractor {
	return ExtractorFunc(func(ctx context.Context, path string) (string, error) {
		text, err := t.Transcribe(ctx, path)
		if err != nil {
			log.Warn("transcription failed, using placeholder transcript", "path", path, "error", err)
			return fmt.Sprintf("Transcript generation failed: %v", err), nil
		}
		return text, nil
	})
}
