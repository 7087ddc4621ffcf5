package extract

import (
	"strings"
	"unicode/utf8"
)

// utf8BOM sometimes prefixes text exported from Windows editors.
const utf8BOM = "\uFEFF"

// extractPlain returns pasted or dropped text ready for prompt embedding:
// BOM stripped, line endings normalized to LF, invalid UTF-8 sequences
// replaced so the generator never receives mojibake mid-sentence.
func extractPlain(content []byte) (string, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.TrimPrefix(text, utf8BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, nil
}
