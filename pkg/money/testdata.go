package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// TestDataGenerator fabricates statement rows and accounts for tests using
// gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGeneratorWithSeed creates a generator whose output is fixed by
// the seed, so fixtures stay reproducible across runs.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// TestTransaction represents a generated statement row.
type TestTransaction struct {
	ID          uuid.UUID
	Date        time.Time
	Description string
	Amount      *Money
	Category    string
	IsExpense   bool
}

// statementMerchants are raw descriptors the way banks print them, paired
// with the category a correct import should land them in.
var statementMerchants = []struct {
	descriptor string
	category   string
}{
	{"CONTINENTE MATOSINHOS", "Groceries"},
	{"PINGO DOCE AMOREIRAS", "Groceries"},
	{"LIDL ALVALADE", "Groceries"},
	{"MERCADONA VALENCIA", "Groceries"},
	{"STARBUCKS 0042", "Dining"},
	{"MCDONALDS AEROPORTO", "Dining"},
	{"UBER EATS LISBOA", "Dining"},
	{"UBER TRIP HELP.UBER.COM", "Transport"},
	{"BOLT RIDE 8412", "Transport"},
	{"GALP COMBUSTIVEIS", "Transport"},
	{"EDP COMERCIAL", "Utilities"},
	{"VODAFONE PORTUGAL", "Utilities"},
	{"NETFLIX.COM AMSTERDAM", "Entertainment"},
	{"SPOTIFY P2B4F8A21", "Entertainment"},
	{"FARMACIA CENTRAL", "Health"},
	{"AMAZON ES MARKETPLACE", "Shopping"},
	{"IKEA ALFRAGIDE", "Shopping"},
	{"RYANAIR RYR4821", "Travel"},
	{"AIRBNB PAYMENTS LUX", "Travel"},
	{"BANK FEE MONTHLY", "Fees"},
}

// cardPrefixes occasionally decorate a descriptor, like real card rails do.
var cardPrefixes = []string{"", "", "", "COMPRA ", "POS ", "DEBIT CARD "}

var incomeDescriptors = []struct {
	descriptor string
	category   string
}{
	{"SALARY ACME LDA", "Income"},
	{"PAYROLL DEPOSIT", "Income"},
	{"WAGES TRANSFER", "Income"},
	{"DIVIDEND PAYMENT", "Income"},
}

// Transaction generates a single random statement row.
func (g *TestDataGenerator) Transaction(currency string) TestTransaction {
	if g.faker.Bool() {
		return g.ExpenseTransaction(currency)
	}
	return g.IncomeTransaction(currency)
}

// Transactions generates multiple random statement rows.
func (g *TestDataGenerator) Transactions(currency string, count int) []TestTransaction {
	txs := make([]TestTransaction, count)
	for i := 0; i < count; i++ {
		txs[i] = g.Transaction(currency)
	}
	return txs
}

// ExpenseTransaction generates a random expense row with a merchant
// descriptor the categorizer recognizes. Amounts run up to 500.00.
func (g *TestDataGenerator) ExpenseTransaction(currency string) TestTransaction {
	merchant := statementMerchants[g.faker.Number(0, len(statementMerchants)-1)]
	prefix := cardPrefixes[g.faker.Number(0, len(cardPrefixes)-1)]

	return TestTransaction{
		ID:          uuid.New(),
		Date:        g.statementDate(),
		Description: prefix + merchant.descriptor,
		Amount:      g.RandomAmount(currency, 1, 50000).Negate(),
		Category:    merchant.category,
		IsExpense:   true,
	}
}

// IncomeTransaction generates a random income row.
func (g *TestDataGenerator) IncomeTransaction(currency string) TestTransaction {
	income := incomeDescriptors[g.faker.Number(0, len(incomeDescriptors)-1)]

	return TestTransaction{
		ID:          uuid.New(),
		Date:        g.statementDate(),
		Description: income.descriptor,
		Amount:      g.Salary(currency),
		Category:    income.category,
		IsExpense:   false,
	}
}

// statementDate picks a day within the last year, the window real statement
// exports cover.
func (g *TestDataGenerator) statementDate() time.Time {
	now := time.Now()
	return g.faker.DateRange(now.AddDate(-1, 0, 0), now)
}

// RandomAmount generates a Money value within a minor-unit range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	return New(int64(g.faker.Number(int(minCents), int(maxCents))), currency)
}

// Bill generates a realistic bill amount, 20 to 500 in major units.
func (g *TestDataGenerator) Bill(currency string) *Money {
	return NewFromFloat(g.faker.Float64Range(20, 500), currency)
}

// Salary generates a realistic monthly salary amount.
func (g *TestDataGenerator) Salary(currency string) *Money {
	return NewFromFloat(g.faker.Float64Range(1200, 8000), currency)
}

// Account represents a generated test account row.
type Account struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	BalanceCents int64
	Currency     string
}

var accountNames = []string{
	"Main Checking", "Joint Checking", "Savings", "Travel Card", "House Fund",
}

// Account generates a random account.
func (g *TestDataGenerator) Account(currency string) Account {
	return Account{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Name:         accountNames[g.faker.Number(0, len(accountNames)-1)],
		BalanceCents: g.RandomAmount(currency, 0, 2500000).Amount(),
		Currency:     currency,
	}
}

// StatementCSV renders rows as a day-first CSV statement, the shape most of
// the supported banks export.
func StatementCSV(txs []TestTransaction) string {
	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s,%s,%s\n",
			tx.Date.Format("02/01/2006"), tx.Description, tx.Amount.String())
	}
	return b.String()
}

// MonthlyStatement generates a realistic month of statement rows: one or two
// salary deposits, a handful of bills and a run of daily card purchases.
func (g *TestDataGenerator) MonthlyStatement(currency string) []TestTransaction {
	txs := make([]TestTransaction, 0, 50)

	paycheckCount := g.faker.Number(1, 2)
	for i := 0; i < paycheckCount; i++ {
		txs = append(txs, g.IncomeTransaction(currency))
	}

	billCount := g.faker.Number(5, 10)
	for i := 0; i < billCount; i++ {
		tx := g.ExpenseTransaction(currency)
		tx.Amount = g.Bill(currency).Negate()
		txs = append(txs, tx)
	}

	expenseCount := g.faker.Number(20, 40)
	for i := 0; i < expenseCount; i++ {
		txs = append(txs, g.ExpenseTransaction(currency))
	}

	return txs
}
