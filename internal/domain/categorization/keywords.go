package categorization

// Keyword maps a merchant or description pattern to a category name.
// Patterns match case-insensitively as substrings; Weight breaks ties when
// several patterns hit the same description.
type Keyword struct {
	Pattern  string
	Category string
	Weight   int
}

// DefaultKeywords is the built-in seed table. Brand names carry more weight
// than generic terms so "UBER EATS" resolves to Dining, not Transport.
func DefaultKeywords() []Keyword {
	return []Keyword{
		{Pattern: "UBER EATS", Category: "Dining", Weight: 3},
		{Pattern: "STARBUCKS", Category: "Dining", Weight: 2},
		{Pattern: "MCDONALD", Category: "Dining", Weight: 2},
		{Pattern: "BURGER KING", Category: "Dining", Weight: 2},
		{Pattern: "COFFEE", Category: "Dining", Weight: 1},
		{Pattern: "CAFE", Category: "Dining", Weight: 1},
		{Pattern: "RESTAURANT", Category: "Dining", Weight: 1},
		{Pattern: "PIZZA", Category: "Dining", Weight: 1},

		{Pattern: "CONTINENTE", Category: "Groceries", Weight: 2},
		{Pattern: "PINGO DOCE", Category: "Groceries", Weight: 2},
		{Pattern: "LIDL", Category: "Groceries", Weight: 2},
		{Pattern: "ALDI", Category: "Groceries", Weight: 2},
		{Pattern: "MERCADONA", Category: "Groceries", Weight: 2},
		{Pattern: "SUPERMARKET", Category: "Groceries", Weight: 1},
		{Pattern: "GROCERY", Category: "Groceries", Weight: 1},

		{Pattern: "UBER", Category: "Transport", Weight: 2},
		{Pattern: "BOLT", Category: "Transport", Weight: 2},
		{Pattern: "GALP", Category: "Transport", Weight: 2},
		{Pattern: "TAXI", Category: "Transport", Weight: 1},
		{Pattern: "METRO", Category: "Transport", Weight: 1},
		{Pattern: "PARKING", Category: "Transport", Weight: 1},
		{Pattern: "FUEL", Category: "Transport", Weight: 1},

		{Pattern: "EDP", Category: "Utilities", Weight: 2},
		{Pattern: "VODAFONE", Category: "Utilities", Weight: 2},
		{Pattern: "MEO", Category: "Utilities", Weight: 2},
		{Pattern: "ELECTRICITY", Category: "Utilities", Weight: 1},
		{Pattern: "INTERNET", Category: "Utilities", Weight: 1},
		{Pattern: "WATER BILL", Category: "Utilities", Weight: 1},

		{Pattern: "NETFLIX", Category: "Entertainment", Weight: 2},
		{Pattern: "SPOTIFY", Category: "Entertainment", Weight: 2},
		{Pattern: "STEAM", Category: "Entertainment", Weight: 2},
		{Pattern: "CINEMA", Category: "Entertainment", Weight: 1},

		{Pattern: "FARMACIA", Category: "Health", Weight: 2},
		{Pattern: "PHARMACY", Category: "Health", Weight: 1},
		{Pattern: "HOSPITAL", Category: "Health", Weight: 1},
		{Pattern: "CLINIC", Category: "Health", Weight: 1},

		{Pattern: "AMAZON", Category: "Shopping", Weight: 2},
		{Pattern: "IKEA", Category: "Shopping", Weight: 2},
		{Pattern: "ZARA", Category: "Shopping", Weight: 2},
		{Pattern: "FNAC", Category: "Shopping", Weight: 2},

		{Pattern: "AIRBNB", Category: "Travel", Weight: 2},
		{Pattern: "RYANAIR", Category: "Travel", Weight: 2},
		{Pattern: "TAP PORTUGAL", Category: "Travel", Weight: 2},
		{Pattern: "HOTEL", Category: "Travel", Weight: 1},
		{Pattern: "HOSTEL", Category: "Travel", Weight: 1},

		{Pattern: "SALARY", Category: "Income", Weight: 2},
		{Pattern: "PAYROLL", Category: "Income", Weight: 2},
		{Pattern: "WAGES", Category: "Income", Weight: 1},
		{Pattern: "DIVIDEND", Category: "Income", Weight: 1},

		{Pattern: "RENT PAYMENT", Category: "Housing", Weight: 2},
		{Pattern: "RENTAL", Category: "Housing", Weight: 1},
		{Pattern: "LANDLORD", Category: "Housing", Weight: 1},
		{Pattern: "MORTGAGE", Category: "Housing", Weight: 1},
		{Pattern: "CONDOMINIO", Category: "Housing", Weight: 1},

		{Pattern: "COMMISSION", Category: "Fees", Weight: 1},
		{Pattern: "BANK FEE", Category: "Fees", Weight: 2},
		{Pattern: "SERVICE CHARGE", Category: "Fees", Weight: 1},
	}
}
