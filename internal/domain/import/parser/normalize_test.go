package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		dayFirst bool
		want     time.Time
	}{
		{"iso", "2024-02-01", false, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"iso with slashes", "2024/02/01", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"compact", "20240201", false, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"day first", "01/02/2024", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"month first", "01/02/2024", false, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"day above 12 forces day first", "13/02/2024", false, time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)},
		{"month above 12 forces month first", "02/13/2024", true, time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)},
		{"two digit year", "01/02/24", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"dotted", "01.02.2024", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"dashed", "01-02-2024", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"unpadded", "1/2/2024", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"textual month", "1 Feb 2024", false, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input, tt.dayFirst)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, input := range []string{"", "not a date", "99/99/2024", "2024"} {
		_, err := parseDate(input, true)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		european bool
		cents    int64
		negative bool
	}{
		{"plain", "5.50", false, 550, false},
		{"negative", "-5.50", false, 550, true},
		{"explicit positive", "+2345.67", false, 234567, false},
		{"thousands separator", "2,345.67", false, 234567, false},
		{"dollar sign", "$1,234.56", false, 123456, false},
		{"signed with dollar", "+$2,345.67", false, 234567, false},
		{"negative with dollar", "-$12.34", false, 1234, true},
		{"euro sign", "€99.99", false, 9999, false},
		{"pound sign", "£10.00", false, 1000, false},
		{"brazilian real", "R$ 150,75", true, 15075, false},
		{"parentheses negative", "(42.00)", false, 4200, true},
		{"trailing minus", "42.00-", false, 4200, true},
		{"european convention", "1.234,56", true, 123456, false},
		{"european auto detected", "1.234,56", false, 123456, false},
		{"comma decimal european", "23,40", true, 2340, false},
		{"integer", "2000", false, 200000, false},
		{"sub cent rounds", "5.505", false, 551, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, negative, err := parseAmountCents(tt.input, tt.european)
			require.NoError(t, err)
			assert.Equal(t, tt.cents, cents)
			assert.Equal(t, tt.negative, negative)
		})
	}
}

func TestParseAmountCentsInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "--", "$"} {
		_, _, err := parseAmountCents(input, false)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseDebitCredit(t *testing.T) {
	tests := []struct {
		name     string
		debit    string
		credit   string
		cents    int64
		negative bool
	}{
		{"debit only", "5.50", "", 550, true},
		{"credit only", "", "2000.00", 200000, false},
		{"debit with dash credit", "5.50", "-", 550, true},
		{"credit with dash debit", "-", "2000.00", 200000, false},
		{"debit wins over credit", "5.50", "2000.00", 550, true},
		{"both empty", "", "", 0, false},
		{"both dashes", "-", "-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, negative := parseDebitCredit(tt.debit, tt.credit, false)
			assert.Equal(t, tt.cents, cents)
			assert.Equal(t, tt.negative, negative)
		})
	}
}

func TestBuildTransaction(t *testing.T) {
	opts := DefaultOptions()

	t.Run("signed amount sets type", func(t *testing.T) {
		tx := buildTransaction(rawFields{date: "01/02/2024", description: "Coffee Shop", amount: "-5.50"}, opts)
		require.NotNil(t, tx)
		assert.Equal(t, int64(550), tx.AmountCents)
		assert.Equal(t, TypeExpense, tx.Type)
		assert.Equal(t, int64(-550), tx.SignedCents())
	})

	t.Run("explicit type overrides sign", func(t *testing.T) {
		tx := buildTransaction(rawFields{date: "01/02/2024", description: "Refund", amount: "5.50", typ: "expense"}, opts)
		require.NotNil(t, tx)
		assert.Equal(t, TypeExpense, tx.Type)
	})

	t.Run("debit credit pair wins over amount column", func(t *testing.T) {
		tx := buildTransaction(rawFields{date: "01/02/2024", description: "Salary", amount: "-1.00", credit: "2000.00"}, opts)
		require.NotNil(t, tx)
		assert.Equal(t, int64(200000), tx.AmountCents)
		assert.Equal(t, TypeIncome, tx.Type)
	})

	t.Run("missing date skips row", func(t *testing.T) {
		assert.Nil(t, buildTransaction(rawFields{description: "Coffee", amount: "5.50"}, opts))
	})

	t.Run("missing description skips row", func(t *testing.T) {
		assert.Nil(t, buildTransaction(rawFields{date: "01/02/2024", amount: "5.50"}, opts))
	})

	t.Run("zero amount skips row", func(t *testing.T) {
		assert.Nil(t, buildTransaction(rawFields{date: "01/02/2024", description: "Coffee", amount: "0.00"}, opts))
	})

	t.Run("unparseable date skips row", func(t *testing.T) {
		assert.Nil(t, buildTransaction(rawFields{date: "soon", description: "Coffee", amount: "5.50"}, opts))
	})
}

func TestMapRecordSynonyms(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name   string
		record map[string]string
	}{
		{"canonical keys", map[string]string{"date": "01/02/2024", "description": "Coffee Shop", "amount": "-5.50"}},
		{"mixed case keys", map[string]string{"Date": "01/02/2024", "Description": "Coffee Shop", "Amount": "-5.50"}},
		{"synonym keys", map[string]string{"transaction date": "01/02/2024", "narrative": "Coffee Shop", "value": "-5.50"}},
		{"payee and withdrawal", map[string]string{"posted date": "01/02/2024", "payee": "Coffee Shop", "withdrawal": "5.50"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := mapRecord(tt.record, opts)
			require.NotNil(t, tx)
			assert.Equal(t, "Coffee Shop", tx.Description)
			assert.Equal(t, int64(550), tx.AmountCents)
			assert.Equal(t, TypeExpense, tx.Type)
		})
	}
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "Coffee Shop", cleanDescription("  Coffee   Shop  "))
	assert.Equal(t, "", cleanDescription("   "))
}
