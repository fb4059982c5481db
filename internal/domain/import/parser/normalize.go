package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Header-name synonyms shared by the map-shaped sources (JSON, XML,
// spreadsheets). The CSV parser expresses the same table through struct
// tags; keep the two in sync.
var (
	dateKeys        = []string{"date", "transaction date", "posted date", "value date", "booking date", "data", "datum", "fecha", "data mov.", "data movim."}
	descriptionKeys = []string{"description", "narrative", "details", "memo", "payee", "merchant", "name", "reference", "descricao", "descrição", "descripción"}
	amountKeys      = []string{"amount", "value", "valor", "importe", "montant"}
	debitKeys       = []string{"debit", "debit amount", "withdrawal", "paid out", "money out", "cargo", "debito", "débito"}
	creditKeys      = []string{"credit", "credit amount", "deposit", "paid in", "money in", "abono", "credito", "crédito"}
	typeKeys        = []string{"type", "transaction type", "tipo"}
	categoryKeys    = []string{"category", "categoria"}
	notesKeys       = []string{"notes", "note", "comment"}
	providerIDKeys  = []string{"transaction id", "fitid", "id", "reference number"}
)

// rawFields is the format-agnostic intermediate every tabular source is
// reduced to before canonical mapping.
type rawFields struct {
	date        string
	description string
	amount      string
	debit       string
	credit      string
	typ         string
	category    string
	notes       string
	providerID  string
}

// mapRecord maps a header-keyed record through the synonym table into a
// canonical transaction. Returns nil for rows that do not carry enough
// data to form one (missing date, missing amount); such rows are skipped,
// not errored, so that header junk and footers never abort a file.
func mapRecord(record map[string]string, opts Options) *ParsedTransaction {
	return buildTransaction(recordFields(record), opts)
}

// recordFields reduces a header-keyed record to raw fields through the
// synonym table. Keys are matched case-insensitively.
func recordFields(record map[string]string) rawFields {
	lowered := make(map[string]string, len(record))
	for k, v := range record {
		lowered[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	return rawFields{
		date:        pick(lowered, dateKeys),
		description: pick(lowered, descriptionKeys),
		amount:      pick(lowered, amountKeys),
		debit:       pick(lowered, debitKeys),
		credit:      pick(lowered, creditKeys),
		typ:         pick(lowered, typeKeys),
		category:    pick(lowered, categoryKeys),
		notes:       pick(lowered, notesKeys),
		providerID:  pick(lowered, providerIDKeys),
	}
}

// buildTransaction derives the canonical transaction from raw field values.
// Sign conventions: a populated debit/credit pair wins over a signed amount
// column; an explicit type column wins over the sign.
func buildTransaction(f rawFields, opts Options) *ParsedTransaction {
	dateStr := strings.TrimSpace(f.date)
	if dateStr == "" {
		return nil
	}

	date, err := parseDate(dateStr, opts.DayFirst)
	if err != nil {
		return nil
	}

	description := cleanDescription(f.description)
	if description == "" {
		return nil
	}

	var cents int64
	var negative bool

	if strings.TrimSpace(f.debit) != "" || strings.TrimSpace(f.credit) != "" {
		cents, negative = parseDebitCredit(f.debit, f.credit, opts.European)
	} else if strings.TrimSpace(f.amount) != "" {
		cents, negative, err = parseAmountCents(f.amount, opts.European)
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
	if explicit, ok := parseTypeHint(f.typ); ok {
		txType = explicit
	}

	return &ParsedTransaction{
		Date:                  date,
		Description:           description,
		AmountCents:           cents,
		Type:                  txType,
		Category:              strings.TrimSpace(f.category),
		Notes:                 strings.TrimSpace(f.notes),
		ProviderTransactionID: strings.TrimSpace(f.providerID),
	}
}

// parseTypeHint interprets an explicit type column.
func parseTypeHint(s string) (TransactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "credit", "deposit", "in", "cr":
		return TypeIncome, true
	case "expense", "debit", "withdrawal", "out", "dr":
		return TypeExpense, true
	default:
		return "", false
	}
}

// Layouts that are unambiguous regardless of locale.
var fixedDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"20060102",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Slash/dash/dot layouts whose day and month order depends on the source
// locale. Non-padded verbs accept both padded and unpadded values.
var dayFirstLayouts = []string{"2/1/2006", "2-1-2006", "2.1.2006", "2/1/06", "2/1/2006 15:04"}

var monthFirstLayouts = []string{"1/2/2006", "1-2-2006", "1.2.2006", "1/2/06", "1/2/2006 15:04"}

// parseDate parses a statement date. dayFirst resolves the DD/MM vs MM/DD
// ambiguity; a first component above 12 forces day-first and vice versa.
func parseDate(s string, dayFirst bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	for _, layout := range fixedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	if first, second, ok := leadingDatePair(s); ok {
		if first > 12 {
			dayFirst = true
		} else if second > 12 {
			dayFirst = false
		}
	}

	ordered := dayFirstLayouts
	fallback := monthFirstLayouts
	if !dayFirst {
		ordered, fallback = monthFirstLayouts, dayFirstLayouts
	}

	for _, layout := range ordered {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range fallback {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

// leadingDatePair extracts the first two numeric components of a
// slash/dash/dot separated date.
func leadingDatePair(s string) (int, int, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.' || r == ' '
	})
	if len(parts) < 2 {
		return 0, 0, false
	}

	first, ok1 := atoi(parts[0])
	second, ok2 := atoi(parts[1])
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return first, second, true
}

func atoi(s string) (int, bool) {
	n := 0
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// Currency markers stripped before numeric parsing. Multi-character
// markers come first so "R$" is not left half-stripped.
var currencyMarkers = []string{"R$", "US$", "USD", "EUR", "GBP", "BRL", "CHF", "$", "€", "£", "¥"}

// parseAmountCents coerces a currency string to absolute minor units plus
// a negative flag. Handles currency symbols, thousands separators,
// leading/trailing minus and parenthesized negatives. european switches
// to the 1.234,56 convention; otherwise a trailing comma-decimal is still
// detected when both separators appear.
func parseAmountCents(raw string, european bool) (int64, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, errors.New("empty amount")
	}

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
		s = strings.TrimSpace(s)
	}
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.TrimSpace(s)

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case european, hasComma && hasDot && strings.LastIndex(s, ",") > strings.LastIndex(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false, fmt.Errorf("invalid amount: %s", raw)
	}
	if d.IsNegative() {
		negative = true
		d = d.Abs()
	}

	return d.Shift(2).Round(0).IntPart(), negative, nil
}

// parseDebitCredit resolves a debit/credit column pair: a non-zero debit
// is money out, a non-zero credit is money in. Debit wins when both are
// populated.
func parseDebitCredit(debitStr, creditStr string, european bool) (int64, bool) {
	if s := strings.TrimSpace(debitStr); s != "" && s != "-" {
		if cents, _, err := parseAmountCents(s, european); err == nil && cents != 0 {
			return cents, true
		}
	}
	if s := strings.TrimSpace(creditStr); s != "" && s != "-" {
		if cents, _, err := parseAmountCents(s, european); err == nil && cents != 0 {
			return cents, false
		}
	}
	return 0, false
}

// pick returns the first non-empty value among the synonym keys.
func pick(record map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(record[k]); v != "" {
			return v
		}
	}
	return ""
}

// cleanDescription trims and collapses runs of whitespace.
func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}
