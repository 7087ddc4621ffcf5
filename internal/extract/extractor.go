// Package extract pulls plain text out of the source material users provide
// for CV drafting: exported CVs, cover letters, and achievement spreadsheets.
// The extracted text feeds the generation prompt; formatting is deliberately
// discarded.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxSourceBytes caps the size of accepted source files. CVs and supporting
// material are small; anything larger is almost certainly the wrong file.
const maxSourceBytes = 20 << 20

// Extractor extracts source text from uploaded or dropped files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the file extensions the intake pipeline accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".xlsx", ".txt", ".md"}
}

// Supported reports whether path has an accepted extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions() {
		if ext == s {
			return true
		}
	}
	return false
}

// Extract reads the file at path and returns its text content.
// Returns an error if the file cannot be read, exceeds the size cap, or the
// format cannot be parsed.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > maxSourceBytes {
		return "", fmt.Errorf("source file too large: %d bytes", info.Size())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are
// treated as plain text so pasted exports without an extension still work.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".txt", ".md", "":
		return extractPlain(content)
	default:
		return extractPlain(content)
	}
}
