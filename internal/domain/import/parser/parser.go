// Package parser turns uploaded bank-statement files into canonical
// transactions. One parser per supported format; all parsers are pure
// (bytes in, transactions out) and perform no I/O.
package parser

import (
	"fmt"
	"time"
)

// TransactionType carries the direction of a transaction. Amounts are
// always stored as absolute values; the type decides the sign.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// ParsedTransaction is the canonical output of every parser.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	// AmountCents is the absolute amount in minor units, never negative.
	AmountCents int64
	Type        TransactionType
	// Category is the raw category hint from the source file, empty when
	// the source provides none.
	Category string
	Notes    string
	// ProviderTransactionID is a stable external identifier when the
	// format supplies one (OFX FITID); used for deduplication.
	ProviderTransactionID string
}

// SignedCents returns the balance impact of the transaction.
func (t *ParsedTransaction) SignedCents() int64 {
	if t.Type == TypeExpense {
		return -t.AmountCents
	}
	return t.AmountCents
}

// Options configures locale-dependent parsing behavior.
type Options struct {
	// DayFirst resolves DD/MM vs MM/DD ambiguity for dates like 01/02/2024.
	DayFirst bool
	// European switches amount parsing to the 1.234,56 style.
	European bool
}

// DefaultOptions returns the parser defaults (day-first dates, 1,234.56 amounts).
func DefaultOptions() Options {
	return Options{DayFirst: true}
}

type parseFunc func(data []byte, opts Options) ([]ParsedTransaction, error)

// parsersByFormat is the closed dispatch table. Every supported format tag
// maps to exactly one parser; unknown tags are rejected by ParseStatement.
var parsersByFormat = map[Format]parseFunc{
	FormatCSV:   ParseCSV,
	FormatOFX:   ParseOFX,
	FormatQFX:   ParseOFX,
	FormatJSON:  ParseJSON,
	FormatXML:   ParseXML,
	FormatTXT:   ParseMT940,
	FormatMT940: ParseMT940,
	FormatXLS:   ParseExcel,
	FormatXLSX:  ParseExcel,
	FormatPDF:   ParsePDF,
}

// ParseStatement parses raw statement bytes with the parser registered for
// the format. A parse error means the file was structurally unreadable;
// a well-formed file with no recognizable transactions returns an empty
// slice and no error.
func ParseStatement(format Format, data []byte, opts Options) ([]ParsedTransaction, error) {
	parse, ok := parsersByFormat[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	return parse(data, opts)
}
