package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// csvRow carries one column per known header synonym; coalescing into
// rawFields happens after unmarshal. Keep the tag set in sync with the
// synonym table in normalize.go.
type csvRow struct {
	Date            string `csv:"date"`
	TransactionDate string `csv:"transaction date"`
	PostedDate      string `csv:"posted date"`
	ValueDate       string `csv:"value date"`
	BookingDate     string `csv:"booking date"`
	Data            string `csv:"data"`
	Datum           string `csv:"datum"`
	Fecha           string `csv:"fecha"`
	DataMov         string `csv:"data mov."`
	DataMovim       string `csv:"data movim."`

	Description string `csv:"description"`
	Narrative   string `csv:"narrative"`
	Details     string `csv:"details"`
	Memo        string `csv:"memo"`
	Payee       string `csv:"payee"`
	Merchant    string `csv:"merchant"`
	Name        string `csv:"name"`
	Reference   string `csv:"reference"`
	Descricao   string `csv:"descricao"`
	DescricaoPT string `csv:"descrição"`
	Descripcion string `csv:"descripción"`

	Amount  string `csv:"amount"`
	Value   string `csv:"value"`
	Valor   string `csv:"valor"`
	Importe string `csv:"importe"`
	Montant string `csv:"montant"`

	Debit       string `csv:"debit"`
	DebitAmount string `csv:"debit amount"`
	Withdrawal  string `csv:"withdrawal"`
	PaidOut     string `csv:"paid out"`
	MoneyOut    string `csv:"money out"`
	Cargo       string `csv:"cargo"`
	Debito      string `csv:"debito"`
	DebitoPT    string `csv:"débito"`

	Credit       string `csv:"credit"`
	CreditAmount string `csv:"credit amount"`
	Deposit      string `csv:"deposit"`
	PaidIn       string `csv:"paid in"`
	MoneyIn      string `csv:"money in"`
	Abono        string `csv:"abono"`
	Credito      string `csv:"credito"`
	CreditoPT    string `csv:"crédito"`

	Type            string `csv:"type"`
	TransactionType string `csv:"transaction type"`
	Tipo            string `csv:"tipo"`

	Category  string `csv:"category"`
	Categoria string `csv:"categoria"`

	Notes   string `csv:"notes"`
	Note    string `csv:"note"`
	Comment string `csv:"comment"`

	TransactionID   string `csv:"transaction id"`
	FITID           string `csv:"fitid"`
	ID              string `csv:"id"`
	ReferenceNumber string `csv:"reference number"`
}

func (r csvRow) fields() rawFields {
	return rawFields{
		date:        coalesce(r.Date, r.TransactionDate, r.PostedDate, r.ValueDate, r.BookingDate, r.Data, r.Datum, r.Fecha, r.DataMov, r.DataMovim),
		description: coalesce(r.description(), r.Memo),
		amount:      coalesce(r.Amount, r.Value, r.Valor, r.Importe, r.Montant),
		debit:       coalesce(r.Debit, r.DebitAmount, r.Withdrawal, r.PaidOut, r.MoneyOut, r.Cargo, r.Debito, r.DebitoPT),
		credit:      coalesce(r.Credit, r.CreditAmount, r.Deposit, r.PaidIn, r.MoneyIn, r.Abono, r.Credito, r.CreditoPT),
		typ:         coalesce(r.Type, r.TransactionType, r.Tipo),
		category:    coalesce(r.Category, r.Categoria),
		notes:       coalesce(r.Notes, r.Note, r.Comment, memoAsNotes(r)),
		providerID:  coalesce(r.TransactionID, r.FITID, r.ID, r.ReferenceNumber),
	}
}

// description resolves the dedicated description columns; the memo
// column only stands in when none of them are populated.
func (r csvRow) description() string {
	return coalesce(r.Description, r.Narrative, r.Details, r.Payee, r.Merchant, r.Name, r.Reference, r.Descricao, r.DescricaoPT, r.Descripcion)
}

// memoAsNotes keeps the memo column as notes when a dedicated description
// column already claimed the row's description.
func memoAsNotes(r csvRow) string {
	if r.Memo != "" && r.description() != "" {
		return r.Memo
	}
	return ""
}

// ParseCSV parses a delimited bank export. The delimiter and header row
// are sniffed, so semicolon and tab exports with metadata preambles work
// without configuration. Header names are matched case-insensitively
// against known synonyms; rows missing a usable date, description or
// amount are skipped rather than failing the file.
func ParseCSV(data []byte, opts Options) ([]ParsedTransaction, error) {
	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("csv: empty file")
	}

	layout, err := sniffLayout(data)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	data = lowercaseHeader(trimToHeader(data, layout.headerLine))

	// Bank exports are messy: stray quotes, ragged rows, padded cells.
	// Parse leniently and let row validation discard what cannot be used.
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = layout.delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows []*csvRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	fields := make([]rawFields, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, row.fields())
	}
	if !opts.European {
		opts.European = probeEuropeanAmounts(fields)
	}

	transactions := make([]ParsedTransaction, 0, len(fields))
	for _, f := range fields {
		if tx := buildTransaction(f, opts); tx != nil {
			transactions = append(transactions, *tx)
		}
	}
	return transactions, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// lowercaseHeader lowercases only the header line so tag matching is
// case-insensitive without touching row values. strings.ToLower rather
// than bytes.ToLower so accented headers like DESCRIÇÃO lower correctly.
func lowercaseHeader(data []byte) []byte {
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		return []byte(strings.ToLower(string(data)))
	}
	header := []byte(strings.ToLower(string(data[:idx])))
	return append(header, data[idx:]...)
}
