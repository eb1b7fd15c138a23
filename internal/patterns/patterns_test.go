package patterns_test

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12/15/24", "2024-12-15", true},
		{"03/05/99", "1999-03-05", true},
		{"2024-01-01", "2024-01-01", true},
		{"07/04/2023", "2023-07-04", true},
		{"01/02/49", "2049-01-02", true},
		{"01/02/50", "1950-01-02", true},
		{"2024/3/9", "2024-03-09", true},
		{"March 5, 2024", "2024-03-05", true},
		{"Sept 30 2022", "2022-09-30", true},
		{"13/01/2024", "", false},
		{"02/30/2024", "", false},
		{"Total 12, 2024", "", false},
		{"not a date", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := patterns.NormalizeDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatePrefersInvoiceDateLabel(t *testing.T) {
	text := "Due Date: 02/15/2024\nInvoice Date: 01/15/2024"
	got, ok := patterns.Date(text)
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", got)
}

func TestDateFallsBackToBareShape(t *testing.T) {
	got, ok := patterns.Date("Statement generated 12/15/24 for services")
	require.True(t, ok)
	assert.Equal(t, "2024-12-15", got)
}

func TestMaxAmountPicksLargest(t *testing.T) {
	text := "Filing fee $50.00\nProfessional services $104,613.11\nCopies $12.50"
	got, ok := patterns.MaxAmount(text)
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("104613.11")), got.String())

	all := patterns.Amounts(text)
	require.Len(t, all, 3)
	assert.True(t, all[0].Equal(decimal.RequireFromString("50")))
}

func TestMaxAmountNone(t *testing.T) {
	_, ok := patterns.MaxAmount("no money here 123")
	assert.False(t, ok)
}

func TestTax(t *testing.T) {
	got, ok := patterns.Tax("Subtotal $100.00\nSales Tax (8%): $8.00\nTotal $108.00")
	require.True(t, ok)
	assert.Equal(t, "8", got.String())

	_, ok = patterns.Tax("Tax ID: 12-3456789")
	assert.False(t, ok)
}

func TestInvoiceNumberPriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled", "INVOICE\nInvoice #: TEST-123\nRef: 998877", "TEST-123"},
		{"number label", "Invoice Number INV-2024-001", "INV-2024-001"},
		{"reference", "Reference: 55-7\nsomething", "55-7"},
		{"digits letter digits", "Matter 2024-BM-0042 billing", "2024-BM-0042"},
		{"prefixed shape", "see ACME-10023 for details", "ACME-10023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := patterns.InvoiceNumber(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvoiceNumberRejectsWordsWithoutDigits(t *testing.T) {
	_, ok := patterns.InvoiceNumber("Invoice Notes: thanks for your business")
	assert.False(t, ok)
}

func TestVendorScansOnlyLeadingLines(t *testing.T) {
	lines := []string{"INVOICE", "Acme Widgets LLC", "123 Main St"}
	got, ok := patterns.Vendor(lines)
	require.True(t, ok)
	assert.Equal(t, "Acme Widgets LLC", got)

	late := []string{"a", "b", "c", "d", "e", "Too Late Inc"}
	_, ok = patterns.Vendor(late)
	assert.False(t, ok)
}

func TestCustomer(t *testing.T) {
	got, ok := patterns.Customer("INVOICE\nBill To: Test Company\nAmount: $500.00")
	require.True(t, ok)
	assert.Equal(t, "Test Company", got)

	got, ok = patterns.Customer("Bill To\nGlobex Corporation\n1 Road")
	require.True(t, ok)
	assert.Equal(t, "Globex Corporation", got)
}

func TestPaymentTerms(t *testing.T) {
	got, ok := patterns.PaymentTerms("Payment Terms: Net 30\nThanks")
	require.True(t, ok)
	assert.Equal(t, "Net 30", got)

	got, ok = patterns.PaymentTerms("Please pay, due upon receipt.")
	require.True(t, ok)
	assert.Equal(t, "due upon receipt", got)
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "EUR", patterns.Currency("Total: 100 EUR", "USD"))
	assert.Equal(t, "GBP", patterns.Currency("Total £100", "USD"))
	assert.Equal(t, "USD", patterns.Currency("Total $100", "USD"))
}

func TestLineItems(t *testing.T) {
	lines := []string{
		"Description Qty Price Amount",
		"Widget A 2 $10.00 $20.00",
		"Consulting hours 3.5 150.00 525.00",
		"Subtotal 1 545.00 545.00",
	}
	items := patterns.LineItems(lines)
	require.Len(t, items, 2)
	assert.Equal(t, "Widget A", items[0].Description)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, items[1].Total.Equal(decimal.RequireFromString("525")))
}

func TestLineTotalMatches(t *testing.T) {
	ok := invoice.LineItem{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(20)}
	bad := invoice.LineItem{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(25)}
	assert.True(t, patterns.LineTotalMatches(ok))
	assert.False(t, patterns.LineTotalMatches(bad))
}

func TestFirstNamedReportsRule(t *testing.T) {
	rules := []patterns.Rule{
		patterns.Regex("never", regexp.MustCompile(`zzz(\d+)`), nil),
		patterns.Regex("digits", regexp.MustCompile(`(\d+)`), nil),
	}
	v, rule, ok := patterns.FirstNamed("abc 42", rules)
	require.True(t, ok)
	assert.Equal(t, "42", v)
	assert.Equal(t, "digits", rule)
}
