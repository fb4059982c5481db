package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// OFX 1.x is SGML: tags frequently have no closing counterpart and the
// value runs to the end of the line. The 2.x XML dialect closes its tags,
// which the same value regex also accepts.
var (
	ofxClosedBlockRe = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxTagRes        = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range []string{"TRNTYPE", "DTPOSTED", "TRNAMT", "FITID", "NAME", "MEMO", "CHECKNUM"} {
		ofxTagRes[tag] = regexp.MustCompile(`(?i)<` + tag + `>\s*([^<\r\n]+)`)
	}
}

// ParseOFX parses OFX and QFX statements, both the SGML 1.x and XML 2.x
// dialects. The TRNAMT sign decides the transaction type.
func ParseOFX(data []byte, _ Options) ([]ParsedTransaction, error) {
	content := string(data)
	if !strings.Contains(strings.ToUpper(content), "<OFX") && !strings.Contains(strings.ToUpper(content), "<STMTTRN") {
		return nil, fmt.Errorf("ofx: missing OFX envelope")
	}

	blocks := stmtTrnBlocks(content)
	transactions := make([]ParsedTransaction, 0, len(blocks))
	for _, block := range blocks {
		tx, ok := parseStmtTrn(block)
		if !ok {
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// stmtTrnBlocks extracts each STMTTRN aggregate. When no closing tags are
// present the content is split on the opening tag instead.
func stmtTrnBlocks(content string) []string {
	matches := ofxClosedBlockRe.FindAllStringSubmatch(content, -1)
	if len(matches) > 0 {
		blocks := make([]string, 0, len(matches))
		for _, m := range matches {
			blocks = append(blocks, m[1])
		}
		return blocks
	}

	parts := regexp.MustCompile(`(?i)<STMTTRN>`).Split(content, -1)
	if len(parts) < 2 {
		return nil
	}
	blocks := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		// Stop each block at the end of the transaction list so trailing
		// ledger aggregates do not bleed into the last transaction.
		if idx := strings.Index(strings.ToUpper(part), "</BANKTRANLIST>"); idx != -1 {
			part = part[:idx]
		}
		blocks = append(blocks, part)
	}
	return blocks
}

func parseStmtTrn(block string) (ParsedTransaction, bool) {
	amountStr := ofxTagValue(block, "TRNAMT")
	dateStr := ofxTagValue(block, "DTPOSTED")
	if amountStr == "" || dateStr == "" {
		return ParsedTransaction{}, false
	}

	date, err := parseOFXDate(dateStr)
	if err != nil {
		return ParsedTransaction{}, false
	}

	cents, negative, err := parseAmountCents(amountStr, false)
	if err != nil || cents == 0 {
		return ParsedTransaction{}, false
	}

	txType := TypeIncome
	if negative {
		txType = TypeExpense
	}

	description := cleanDescription(ofxTagValue(block, "NAME"))
	notes := cleanDescription(ofxTagValue(block, "MEMO"))
	if description == "" {
		description, notes = notes, ""
	}
	if description == "" {
		description = strings.ToUpper(ofxTagValue(block, "TRNTYPE"))
	}
	if description == "" {
		return ParsedTransaction{}, false
	}

	return ParsedTransaction{
		Date:                  date,
		Description:           description,
		AmountCents:           cents,
		Type:                  txType,
		Notes:                 notes,
		ProviderTransactionID: strings.TrimSpace(ofxTagValue(block, "FITID")),
	}, true
}

func ofxTagValue(block, tag string) string {
	m := ofxTagRes[tag].FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseOFXDate reads the leading YYYYMMDD of a DTPOSTED value, ignoring
// the optional time and timezone suffix such as 120000.000[-5:EST].
func parseOFXDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("ofx: short date %q", s)
	}
	return time.Parse("20060102", s[:8])
}
