package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ofxSGMLFixture = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<STMTRS>
<CURDEF>USD
<BANKTRANLIST>
<DTSTART>20240201
<DTEND>20240229
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240201120000
<TRNAMT>-5.50
<FITID>2024020100001
<NAME>COFFEE SHOP
<MEMO>CARD 1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240202
<TRNAMT>2000.00
<FITID>2024020200001
<NAME>ACME PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1994.50
<DTASOF>20240229
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestParseOFX(t *testing.T) {
	transactions, err := ParseOFX([]byte(ofxSGMLFixture), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	coffee := transactions[0]
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), coffee.Date)
	assert.Equal(t, "COFFEE SHOP", coffee.Description)
	assert.Equal(t, "CARD 1234", coffee.Notes)
	assert.Equal(t, int64(550), coffee.AmountCents)
	assert.Equal(t, TypeExpense, coffee.Type)
	assert.Equal(t, "2024020100001", coffee.ProviderTransactionID)

	payroll := transactions[1]
	assert.Equal(t, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), payroll.Date)
	assert.Equal(t, "ACME PAYROLL", payroll.Description)
	assert.Equal(t, int64(200000), payroll.AmountCents)
	assert.Equal(t, TypeIncome, payroll.Type)
}

func TestParseOFXWithoutClosingTags(t *testing.T) {
	fixture := `<OFX>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240215
<TRNAMT>-12.34
<FITID>F1
<NAME>GROCERY STORE
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240216
<TRNAMT>50.00
<FITID>F2
<NAME>REFUND
</BANKTRANLIST>
</OFX>`

	transactions, err := ParseOFX([]byte(fixture), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "GROCERY STORE", transactions[0].Description)
	assert.Equal(t, int64(1234), transactions[0].AmountCents)
	assert.Equal(t, TypeExpense, transactions[0].Type)
	assert.Equal(t, "F2", transactions[1].ProviderTransactionID)
	assert.Equal(t, TypeIncome, transactions[1].Type)
}

func TestParseOFXTimezoneSuffix(t *testing.T) {
	fixture := `<OFX><STMTTRN><DTPOSTED>20240215120000.000[-5:EST]<TRNAMT>-1.00<NAME>TEST</STMTTRN></OFX>`

	transactions, err := ParseOFX([]byte(fixture), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), transactions[0].Date)
}

func TestParseOFXMemoOnlyDescription(t *testing.T) {
	fixture := `<OFX><STMTTRN><DTPOSTED>20240215<TRNAMT>-1.00<MEMO>DIRECT DEBIT</STMTTRN></OFX>`

	transactions, err := ParseOFX([]byte(fixture), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "DIRECT DEBIT", transactions[0].Description)
	assert.Empty(t, transactions[0].Notes)
}

func TestParseOFXSkipsIncompleteBlocks(t *testing.T) {
	fixture := `<OFX>
<STMTTRN>
<TRNTYPE>DEBIT
<NAME>NO DATE OR AMOUNT
</STMTTRN>
<STMTTRN>
<DTPOSTED>20240215
<TRNAMT>-3.00
<NAME>KEPT
</STMTTRN>
</OFX>`

	transactions, err := ParseOFX([]byte(fixture), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "KEPT", transactions[0].Description)
}

func TestParseOFXEmptyStatement(t *testing.T) {
	transactions, err := ParseOFX([]byte("<OFX><BANKTRANLIST></BANKTRANLIST></OFX>"), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestParseOFXMissingEnvelope(t *testing.T) {
	_, err := ParseOFX([]byte("just some text"), DefaultOptions())
	assert.Error(t, err)
}
