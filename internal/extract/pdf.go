package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF pulls the text of an exported CV out of PDF bytes. Pages are
// joined with a blank line so section boundaries survive into the drafting
// prompt. CV exporters produce wildly uneven PDFs; a page that cannot be
// read is skipped rather than sinking the whole file, and the extraction
// fails only when no page yields text.
func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var pages []string
	numPages := r.NumPage()
	var lastErr error
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", i, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		if lastErr != nil {
			return "", fmt.Errorf("extract PDF: no readable pages: %w", lastErr)
		}
		return "", fmt.Errorf("extract PDF: no text content")
	}
	return strings.Join(pages, "\n\n"), nil
}
