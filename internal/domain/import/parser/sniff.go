package parser

import (
	"bytes"
	"errors"
	"strings"
)

// Bank exports rarely start at the table: account metadata, filter
// summaries and blank lines come first, and the delimiter varies by
// bank (comma, semicolon, tab, pipe). Layout sniffing locates the real
// header row and its delimiter before any CSV reader runs.

// headerScanLimit bounds how deep the header search goes; a table that
// starts later than this is not a statement export.
const headerScanLimit = 20

var errNoTable = errors.New("no delimited table found")

// headerKeywords is derived from the synonym table in normalize.go so
// layout detection and column mapping never disagree on what counts as
// a header.
var headerKeywords = func() []string {
	groups := [][]string{dateKeys, descriptionKeys, amountKeys, debitKeys, creditKeys, categoryKeys}
	var keywords []string
	for _, group := range groups {
		keywords = append(keywords, group...)
	}
	return keywords
}()

// csvLayout is the detected physical shape of a delimited export.
type csvLayout struct {
	delimiter  rune
	headerLine int
}

// sniffLayout scans the leading lines for the header row. Lines naming
// at least two mapped columns win; otherwise the widest line is assumed
// to be the header. Column count breaks ties because real headers have
// many columns and metadata lines have few.
func sniffLayout(data []byte) (csvLayout, error) {
	lines := strings.Split(string(data), "\n")

	best := csvLayout{headerLine: -1}
	bestScore := 0
	fallback := csvLayout{headerLine: -1}
	fallbackColumns := 0

	for i, line := range lines {
		if i >= headerScanLimit {
			break
		}
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" {
			continue
		}

		delimiter, columns := detectDelimiter(line)
		if columns < 1 {
			continue
		}

		lowered := strings.ToLower(line)
		matches := 0
		for _, keyword := range headerKeywords {
			if strings.Contains(lowered, keyword) {
				matches++
			}
		}

		if matches >= 2 {
			score := columns*10 + matches
			if score > bestScore {
				bestScore = score
				best = csvLayout{delimiter: delimiter, headerLine: i}
			}
		} else if columns > fallbackColumns {
			fallbackColumns = columns
			fallback = csvLayout{delimiter: delimiter, headerLine: i}
		}
	}

	if best.headerLine >= 0 {
		return best, nil
	}
	if fallback.headerLine >= 0 && fallbackColumns >= 2 {
		return fallback, nil
	}
	return csvLayout{}, errNoTable
}

// detectDelimiter picks the candidate delimiter occurring most often in
// the line. The count approximates the column count minus one.
func detectDelimiter(line string) (rune, int) {
	candidates := []rune{';', '\t', ',', '|'}
	var best rune
	bestCount := 0
	for _, d := range candidates {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best, bestCount
}

// trimToHeader drops the metadata lines above the header row so the
// header becomes the first line the CSV reader sees.
func trimToHeader(data []byte, headerLine int) []byte {
	for ; headerLine > 0; headerLine-- {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			return data
		}
		data = data[idx+1:]
	}
	return data
}

// sniffHeaderRow finds the header row among sheet rows, skipping the
// metadata rows banks place above the table. Cells are matched exactly
// against the synonym table; returns 0 when nothing better is found.
func sniffHeaderRow(rows [][]string) int {
	for i, row := range rows {
		if i >= headerScanLimit {
			break
		}
		matches := 0
		for _, cell := range row {
			lowered := strings.ToLower(strings.TrimSpace(cell))
			for _, keyword := range headerKeywords {
				if lowered == keyword {
					matches++
					break
				}
			}
		}
		if matches >= 2 {
			return i
		}
	}
	return 0
}

type formatHint int

const (
	hintAmbiguous formatHint = iota
	hintEuropean
	hintAmerican
)

// probeEuropeanAmounts reports whether the amount columns follow the
// 1.234,56 convention. Only decisive values vote, so a file of plain
// integers keeps the caller's setting.
func probeEuropeanAmounts(rows []rawFields) bool {
	european, american := 0, 0
	for _, f := range rows {
		for _, value := range []string{f.amount, f.debit, f.credit} {
			if value == "" {
				continue
			}
			if strings.Contains(value, "€") || strings.Contains(strings.ToUpper(value), "EUR") {
				european++
			}
			switch amountFormatHint(value) {
			case hintEuropean:
				european++
			case hintAmerican:
				american++
			}
		}
	}
	return european > american
}

// amountFormatHint classifies one raw amount string. A value carrying
// both separators is decided by whichever comes last; a lone separator
// only votes when it sits in a decimal position.
func amountFormatHint(value string) formatHint {
	digits := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			return r
		default:
			return -1
		}
	}, value)

	comma := strings.LastIndex(digits, ",")
	dot := strings.LastIndex(digits, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return hintEuropean
		}
		return hintAmerican
	case comma >= 0:
		if decimals := len(digits) - comma - 1; decimals >= 1 && decimals <= 2 {
			return hintEuropean
		}
	case dot >= 0:
		if decimals := len(digits) - dot - 1; decimals >= 1 && decimals <= 2 {
			return hintAmerican
		}
	}
	return hintAmbiguous
}
