package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SWIFT MT940 statement line, tag :61:. Value date, optional entry date,
// debit/credit mark with reversal and expectation variants, optional funds
// code, comma-decimal amount, then the type code and references.
var mt940StatementRe = regexp.MustCompile(`^(\d{6})(\d{4})?(RC|RD|EC|ED|C|D)([A-Z]?)(\d+[,.]\d*|\d+)(.*)$`)

// Type code plus customer reference in the statement line remainder.
var mt940RemainderRe = regexp.MustCompile(`^([NSF][A-Z0-9]{3})?([^/]*)`)

// Structured narrative subfield markers such as ?20, ?21 inside tag :86:.
var mt940SubfieldRe = regexp.MustCompile(`\?\d{2}`)

type mt940Entry struct {
	date      time.Time
	cents     int64
	txType    TransactionType
	typeCode  string
	reference string
	narrative []string
	in86      bool
}

// ParseMT940 parses a SWIFT MT940 customer statement. Each :61: statement
// line opens an entry; the following :86: information lines, including
// unprefixed continuation lines, supply the description.
func ParseMT940(data []byte, _ Options) ([]ParsedTransaction, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var transactions []ParsedTransaction
	var current *mt940Entry

	flush := func() {
		if current == nil {
			return
		}
		if tx := current.transaction(); tx != nil {
			transactions = append(transactions, *tx)
		}
		current = nil
	}

	sawStatementLine := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, ":61:"):
			flush()
			sawStatementLine = true
			if entry, ok := parseMT940StatementLine(line[len(":61:"):]); ok {
				current = &entry
			}
		case strings.HasPrefix(line, ":86:"):
			if current != nil {
				current.in86 = true
				current.narrative = append(current.narrative, strings.TrimSpace(line[len(":86:"):]))
			}
		case strings.HasPrefix(line, ":"), line == "-", strings.HasPrefix(line, "-}"):
			flush()
		default:
			if current != nil && current.in86 && strings.TrimSpace(line) != "" {
				current.narrative = append(current.narrative, strings.TrimSpace(line))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mt940: %w", err)
	}
	flush()

	if !sawStatementLine {
		return nil, fmt.Errorf("mt940: no statement lines found")
	}
	return transactions, nil
}

func parseMT940StatementLine(s string) (mt940Entry, bool) {
	m := mt940StatementRe.FindStringSubmatch(s)
	if m == nil {
		return mt940Entry{}, false
	}

	date, err := time.Parse("060102", m[1])
	if err != nil {
		return mt940Entry{}, false
	}

	amount := m[5]
	cents, _, err := parseAmountCents(amount, strings.Contains(amount, ","))
	if err != nil || cents == 0 {
		return mt940Entry{}, false
	}

	// C credits the account, D debits it. R marks a reversal with the
	// opposite effect, E an expected entry with the stated one.
	var txType TransactionType
	switch m[3] {
	case "C", "RD", "EC":
		txType = TypeIncome
	case "D", "RC", "ED":
		txType = TypeExpense
	default:
		return mt940Entry{}, false
	}

	entry := mt940Entry{date: date, cents: cents, txType: txType}
	if rm := mt940RemainderRe.FindStringSubmatch(strings.TrimSpace(m[6])); rm != nil {
		entry.typeCode = rm[1]
		if ref := strings.TrimSpace(rm[2]); ref != "" && !strings.EqualFold(ref, "NONREF") {
			entry.reference = ref
		}
	}
	return entry, true
}

func (e *mt940Entry) transaction() *ParsedTransaction {
	description := cleanDescription(mt940SubfieldRe.ReplaceAllString(strings.Join(e.narrative, " "), " "))
	if description == "" {
		description = e.reference
	}
	if description == "" {
		description = e.typeCode
	}
	if description == "" {
		return nil
	}

	return &ParsedTransaction{
		Date:        e.date,
		Description: description,
		AmountCents: e.cents,
		Type:        e.txType,
	}
}
