package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDefaultDocPath is where the main document body usually lives inside a
// .docx package.
const docxDefaultDocPath = "word/document.xml"

// docxContentTypesPath declares which part holds the main document.
const docxContentTypesPath = "[Content_Types].xml"

// docxMainContentType marks the main document part in [Content_Types].xml.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wtRun matches one <w:t> text run, with or without attributes such as
// xml:space="preserve".
var wtRun = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wpClose splits the body into paragraphs. One paragraph per CV line: name,
// headline, each bullet.
var wpClose = regexp.MustCompile(`</w:p>`)

// Override elements come in both attribute orders.
var (
	docxPartNameFirst = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	docxPartNameLast  = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// docxMainDocPath resolves the main document part from [Content_Types].xml,
// falling back to the conventional path when the declaration is absent.
func docxMainDocPath(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != docxContentTypesPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			break
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			break
		}
		content := string(data)
		if m := docxPartNameFirst.FindStringSubmatch(content); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
		if m := docxPartNameLast.FindStringSubmatch(content); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
		break
	}
	return docxDefaultDocPath
}

// extractDOCX pulls the text of a CV out of .docx bytes. A .docx is a zip
// holding the OOXML body; text lives in <w:t> runs grouped into <w:p>
// paragraphs. Paragraph boundaries become newlines so the drafting prompt
// sees the CV's line structure (headline, bullets) instead of one flattened
// blob; runs within a paragraph are joined with spaces. Matching <w:t> with
// arbitrary attributes is deliberate: real-world documents attach rsid and
// spacing attributes everywhere, and an attribute-blind pattern yields
// nothing.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := docxMainDocPath(zr)
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	var lines []string
	for _, para := range wpClose.Split(string(docXML), -1) {
		runs := wtRun.FindAllStringSubmatch(para, -1)
		if len(runs) == 0 {
			continue
		}
		var b strings.Builder
		for _, r := range runs {
			text := strings.TrimSpace(r[1])
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
		if b.Len() > 0 {
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n"), nil
}
