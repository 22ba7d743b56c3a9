package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF pulls text page by page. Pages that fail to decode contribute nothing
// rather than failing the whole document; a PDF where no page decodes still
// trips the registry's empty-text check.
func PDF() Extractor {
	return ExtractorFunc(func(ctx context.Context, path string) (string, error) {
		f, r, err := pdf.Open(path)
		if err != nil {
			return "", fmt.Errorf("open pdf: %w", err)
		}
		defer f.Close()

		var sb strings.Builder
		for i := 1; i <= r.NumPage(); i++ {
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				continue
			}
			sb.WriteString(text)
		}
		return sb.String(), nil
	})
}
