package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel pulls the text of an achievement or skills spreadsheet out of
// .xlsx bytes. Rows become tab-joined lines; blank rows are dropped. When the
// workbook has several sheets, each sheet's name is emitted as a heading line
// so the drafting prompt can tell "Achievements" data from "Certifications"
// data.
func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var buf strings.Builder
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		var lines []string
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		if len(sheets) > 1 {
			buf.WriteString(sheet + ":\n")
		}
		buf.WriteString(strings.Join(lines, "\n"))
	}
	return buf.String(), nil
}
