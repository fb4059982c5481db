package parser

import (
	"regexp"
	"strings"
)

type pdfLayout int

const (
	// layoutDebitCredit reads paid-out and paid-in columns, with "-"
	// marking the empty one.
	layoutDebitCredit pdfLayout = iota
	// layoutSignedAmount reads a single explicitly signed amount column.
	layoutSignedAmount
)

// pdfTemplate describes one known statement layout. Templates are fixed
// at compile time; matching never mutates them.
type pdfTemplate struct {
	ID          string
	Keywords    []string
	LinePattern *regexp.Regexp
	Layout      pdfLayout
	DayFirst    bool
}

// pdfTemplates is the layout registry, checked in order on score ties.
var pdfTemplates = []pdfTemplate{
	{
		ID: "uk-generic",
		Keywords: []string{
			"sort code",
			"balance brought forward",
			"account number",
			"paid in",
			"paid out",
		},
		// Date, description, paid out, paid in, optional running balance.
		LinePattern: regexp.MustCompile(`^\s*(\d{1,2}/\d{1,2}/\d{2,4})\s+(.+?)\s+(-|[\d,]+\.\d{2})\s+(-|[\d,]+\.\d{2})(?:\s+(-|[\d,]+\.\d{2}))?\s*$`),
		Layout:      layoutDebitCredit,
		DayFirst:    true,
	},
	{
		ID: "us-generic",
		Keywords: []string{
			"statement period",
			"beginning balance",
			"ending balance",
			"account summary",
		},
		// Date, description, signed amount, optional running balance. The
		// sign is what separates the amount column from the balance.
		LinePattern: regexp.MustCompile(`^\s*(\d{1,2}/\d{1,2}/\d{2,4})\s+(.+?)\s+([+-]\$?[\d,]+\.\d{2})(?:\s+\$?[\d,]+\.\d{2})?\s*$`),
		Layout:      layoutSignedAmount,
		DayFirst:    false,
	},
}

// detectPDFTemplate scores each registered template by keyword hits over
// the extracted text and returns the best scorer, or nil when nothing
// matches.
func detectPDFTemplate(lines []string) *pdfTemplate {
	text := strings.ToLower(strings.Join(lines, "\n"))

	var best *pdfTemplate
	bestScore := 0
	for i := range pdfTemplates {
		score := 0
		for _, keyword := range pdfTemplates[i].Keywords {
			if strings.Contains(text, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = &pdfTemplates[i]
			bestScore = score
		}
	}
	return best
}

// parseLine applies the template's line grammar. Lines that do not form a
// complete transaction row, headers, footers, carried balances, are
// skipped rather than treated as errors.
func (t *pdfTemplate) parseLine(line string) *ParsedTransaction {
	m := t.LinePattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	date, err := parseDate(m[1], t.DayFirst)
	if err != nil {
		return nil
	}

	description := cleanDescription(m[2])
	if description == "" {
		return nil
	}

	var cents int64
	var negative bool
	switch t.Layout {
	case layoutDebitCredit:
		cents, negative = parseDebitCredit(m[3], m[4], false)
	case layoutSignedAmount:
		var err error
		cents, negative, err = parseAmountCents(m[3], false)
		if err != nil {
			return nil
		}
	}
	if cents == 0 {
		return nil
	}

	txType := TypeIncome
	if negative {
		txType = TypeExpense
	}

	return &ParsedTransaction{
		Date:        date,
		Description: description,
		AmountCents: cents,
		Type:        txType,
	}
}
