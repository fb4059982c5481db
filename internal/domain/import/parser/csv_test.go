package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	data := []byte("Date,Description,Amount\n01/02/2024,Coffee Shop,-5.50\n02/02/2024,Salary,2000.00")

	transactions, err := ParseCSV(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	coffee := transactions[0]
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), coffee.Date)
	assert.Equal(t, "Coffee Shop", coffee.Description)
	assert.Equal(t, int64(550), coffee.AmountCents)
	assert.Equal(t, TypeExpense, coffee.Type)

	salary := transactions[1]
	assert.Equal(t, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), salary.Date)
	assert.Equal(t, "Salary", salary.Description)
	assert.Equal(t, int64(200000), salary.AmountCents)
	assert.Equal(t, TypeIncome, salary.Type)
}

func TestParseCSVHeaderCase(t *testing.T) {
	data := []byte("DATE,DESCRIPTION,AMOUNT\n01/02/2024,Coffee Shop,-5.50")

	transactions, err := ParseCSV(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Coffee Shop", transactions[0].Description)
}

func TestParseCSVByteOrderMark(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,description,amount\n01/02/2024,Coffee,-5.50")...)

	transactions, err := ParseCSV(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 1)
}

func TestParseCSVDebitCreditColumns(t *testing.T) {
	data := []byte("Date,Description,Paid Out,Paid In\n01/02/2024,Coffee Shop,5.50,\n02/02/2024,Salary,,2000.00")

	transactions, err := ParseCSV(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, TypeExpense, transactions[0].Type)
	assert.Equal(t, int64(550), transactions[0].AmountCents)
	assert.Equal(t, TypeIncome, transactions[1].Type)
	assert.Equal(t, int64(200000), transactions[1].AmountCents)
}

func TestParseCSVSynonymHeaders(t *testing.T) {
	data := []byte("Transaction Date,Payee,Value,Category,Transaction ID\n01/02/2024,Coffee Shop,-5.50,Dining,TX-100")

	transactions, err := ParseCSV(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 1)

	tx := transactions[0]
	assert.Equal(t, "Coffee Shop", tx.Description)
	assert.Equal(t, "Dining", tx.Category)
	assert.Equal(t, "TX-100", tx.ProviderTransactionID)
}

func TestParseCSVMemoBecomesNotes(t *testing.T) {
	data := []byte("Date,Description,Memo,Amount\n01/02/2024,Coffee Shop,card payment,-5.50")

	transactions, err := ParseCSV(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Coffee Shop", transactions[0].Description)
	assert.Equal(t, "card payment", transactions[0].Notes)
}

func TestParseCSVSkipsUnusableRows(t *testing.T) {
	data := []byte("Date,Description,Amount\n" +
		"01/02/2024,Coffee Shop,-5.50\n" +
		",,\n" +
		"not a date,Mystery,9.99\n" +
		"03/02/2024,Zero Row,0.00\n" +
		"04/02/2024,Short Row\n" +
		"05/02/2024,Groceries,-12.00,extra,columns\n")

	transactions, err := ParseCSV(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "Coffee Shop", transactions[0].Description)
	assert.Equal(t, "Groceries", transactions[1].Description)
}

func TestParseCSVEuropeanAmounts(t *testing.T) {
	data := []byte("data,descricao,valor\n01/02/2024,Mercado,\"-1.234,56\"")

	transactions, err := ParseCSV(data, Options{DayFirst: true, European: true})
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, int64(123456), transactions[0].AmountCents)
	assert.Equal(t, TypeExpense, transactions[0].Type)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV([]byte(""), DefaultOptions())
	assert.Error(t, err)

	transactions, err := ParseCSV([]byte("Date,Description,Amount\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, transactions)
}
