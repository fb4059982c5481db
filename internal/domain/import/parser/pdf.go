package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ParsePDF extracts the text of a PDF statement and parses it against the
// known layout templates. Text extraction preserves row structure so the
// line grammars see one transaction per line.
func ParsePDF(data []byte, _ Options) ([]ParsedTransaction, error) {
	lines, err := extractPDFLines(data)
	if err != nil {
		return nil, err
	}
	return parsePDFLines(lines)
}

// parsePDFLines matches extracted text lines against the template
// registry. A matched template with no transaction rows yields an empty
// list, not an error.
func parsePDFLines(lines []string) ([]ParsedTransaction, error) {
	tmpl := detectPDFTemplate(lines)
	if tmpl == nil {
		return nil, fmt.Errorf("pdf: no known statement layout")
	}

	transactions := make([]ParsedTransaction, 0)
	for _, line := range lines {
		if tx := tmpl.parseLine(line); tx != nil {
			transactions = append(transactions, *tx)
		}
	}
	return transactions, nil
}

// extractPDFLines reads every page row by row. The pdf library panics on
// malformed input, so recover turns that into an error.
func extractPDFLines(data []byte) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read pdf page %d: %w", pageIndex, err)
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			lines = append(lines, sb.String())
		}
	}
	return lines, nil
}
