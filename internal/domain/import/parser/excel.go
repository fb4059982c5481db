package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names tried before falling back to the first sheet.
var preferredSheetNames = []string{"transactions", "movimentos", "extrato", "statement", "data", "sheet1"}

// ParseExcel parses an XLS or XLSX workbook. The header row of the
// chosen sheet is sniffed past any metadata rows; every later row goes
// through the same synonym mapping as CSV columns.
func ParseExcel(data []byte, opts Options) ([]ParsedTransaction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheetName := findTransactionSheet(f)
	if sheetName == "" {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return []ParsedTransaction{}, nil
	}

	headerRow := sniffHeaderRow(rows)
	headers := rows[headerRow]

	fields := make([]rawFields, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = row[i]
			}
		}
		fields = append(fields, recordFields(record))
	}
	if !opts.European {
		opts.European = probeEuropeanAmounts(fields)
	}

	transactions := make([]ParsedTransaction, 0, len(fields))
	for _, rf := range fields {
		if tx := buildTransaction(rf, opts); tx != nil {
			transactions = append(transactions, *tx)
		}
	}
	return transactions, nil
}

// findTransactionSheet picks the sheet most likely to hold statement rows.
func findTransactionSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheetNames {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}
