package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/askdb/pkg/models"
)

func doubleQuote(name string) string { return `"` + name + `"` }

func bracketQuote(name string) string { return "[" + name + "]" }

func testTables() []models.TableSchema {
	return []models.TableSchema{
		{
			Name: "CUSTOMERS_59C96545",
			Columns: []models.TableColumn{
				{Name: "ID"},
				{Name: "NAME"},
				{Name: "Order"},
			},
		},
		{
			Name: "orders",
			Columns: []models.TableColumn{
				{Name: "customer_id"},
				{Name: "amount"},
			},
		},
	}
}

func TestQuoteIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		quote    QuoteFunc
		expected string
	}{
		{
			name:     "quotes tables and columns",
			input:    "SELECT name, id FROM customers_59c96545",
			quote:    doubleQuote,
			expected: `SELECT "NAME", "ID" FROM "CUSTOMERS_59C96545"`,
		},
		{
			name:     "reserved word column uses schema casing",
			input:    "SELECT order FROM orders",
			quote:    doubleQuote,
			expected: `SELECT "Order" FROM "orders"`,
		},
		{
			name:     "already quoted identifiers untouched",
			input:    `SELECT "NAME" FROM "CUSTOMERS_59C96545"`,
			quote:    doubleQuote,
			expected: `SELECT "NAME" FROM "CUSTOMERS_59C96545"`,
		},
		{
			name:     "literals untouched",
			input:    "SELECT amount FROM orders WHERE note = 'amount due'",
			quote:    doubleQuote,
			expected: `SELECT "amount" FROM "orders" WHERE note = 'amount due'`,
		},
		{
			name:     "partial words untouched",
			input:    "SELECT amount_total, ids FROM orders",
			quote:    doubleQuote,
			expected: `SELECT amount_total, ids FROM "orders"`,
		},
		{
			name:     "function call names untouched",
			input:    "SELECT name(amount) FROM orders",
			quote:    doubleQuote,
			expected: `SELECT name("amount") FROM "orders"`,
		},
		{
			name:     "qualified references",
			input:    "SELECT o.amount FROM orders o",
			quote:    bracketQuote,
			expected: "SELECT o.[amount] FROM [orders] o",
		},
		{
			name:     "no known names",
			input:    "SELECT 1 FROM dual",
			quote:    doubleQuote,
			expected: "SELECT 1 FROM dual",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifiers(tt.input, testTables(), tt.quote))
		})
	}
}

func TestQuoteIdentifiers_Idempotent(t *testing.T) {
	once := QuoteIdentifiers("SELECT customer_id, SUM(amount) FROM orders GROUP BY customer_id", testTables(), doubleQuote)
	assert.Equal(t, once, QuoteIdentifiers(once, testTables(), doubleQuote))
}

func TestQuoteIdentifiers_EmptySchema(t *testing.T) {
	assert.Equal(t, "SELECT a FROM b", QuoteIdentifiers("SELECT a FROM b", nil, doubleQuote))
}
