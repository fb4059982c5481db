package money

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorTransactions(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(42)

	txs := gen.Transactions(EUR, 10)
	require.Len(t, txs, 10)
	for _, tx := range txs {
		assert.NotEmpty(t, tx.Description)
		assert.NotEmpty(t, tx.Category)
		assert.Equal(t, EUR, tx.Amount.Currency())
		if tx.IsExpense {
			assert.True(t, tx.Amount.IsNegative(), "expense %q must be negative", tx.Description)
		} else {
			assert.True(t, tx.Amount.IsPositive(), "income %q must be positive", tx.Description)
		}
	}
}

func TestGeneratorExpenseAndIncome(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(7)

	expense := gen.ExpenseTransaction(EUR)
	assert.True(t, expense.IsExpense)
	assert.True(t, expense.Amount.IsNegative())

	income := gen.IncomeTransaction(EUR)
	assert.False(t, income.IsExpense)
	assert.True(t, income.Amount.IsPositive())
	assert.Equal(t, "Income", income.Category)
}

func TestGeneratorAccount(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(3)

	account := gen.Account(EUR)
	assert.NotEmpty(t, account.ID)
	assert.NotEmpty(t, account.Name)
	assert.Equal(t, EUR, account.Currency)
	assert.GreaterOrEqual(t, account.BalanceCents, int64(0))
}

func TestMonthlyStatementShape(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(42)

	txs := gen.MonthlyStatement(EUR)
	assert.Greater(t, len(txs), 20)

	var incomes int
	for _, tx := range txs {
		if !tx.IsExpense {
			incomes++
		}
	}
	assert.GreaterOrEqual(t, incomes, 1)
	assert.LessOrEqual(t, incomes, 2)
}

func TestStatementCSV(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(7)
	txs := gen.Transactions(EUR, 5)

	csv := StatementCSV(txs)
	lines := strings.Split(strings.TrimSpace(csv), "\n")

	require.Len(t, lines, 6)
	assert.Equal(t, "Date,Description,Amount", lines[0])
	for i, tx := range txs {
		assert.Contains(t, lines[i+1], tx.Description)
		assert.Contains(t, lines[i+1], tx.Date.Format("02/01/2006"))
	}
}

func BenchmarkMonthlyStatement(b *testing.B) {
	gen := NewTestDataGeneratorWithSeed(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.MonthlyStatement(EUR)
	}
}
