package extract

import (
	"context"
	"fmt"
	"os"
)

// Text reads a file verbatim as UTF-8. Used for .txt, .md and .html uploads.
func Text() Extractor {
	return ExtractorFunc(func(ctx context.Context, path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(data), nil
	})
}
