package fallback_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/fallback"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

func TestExtractEmptyText(t *testing.T) {
	inv := fallback.NewExtractor(nil).Extract(invoice.NewRawText(""))
	assert.Nil(t, inv.VendorName)
	assert.Nil(t, inv.InvoiceNumber)
	assert.Nil(t, inv.Date)
	assert.Nil(t, inv.TotalAmount)
	assert.Empty(t, inv.LineItems)
	assert.LessOrEqual(t, inv.ConfidenceScore, 0.1)
	assert.Equal(t, constants.MethodFallback, inv.Method)
	assert.Equal(t, "USD", inv.Currency)
}

func TestExtractSimpleInvoice(t *testing.T) {
	text := "INVOICE\nInvoice #: TEST-123\nDate: 2025-07-30\nBill To: Test Company\nAmount: $500.00"
	inv := fallback.NewExtractor(nil).Extract(invoice.NewRawText(text))

	assert.Equal(t, "TEST-123", invoice.Deref(inv.InvoiceNumber))
	assert.Equal(t, "2025-07-30", invoice.Deref(inv.Date))
	require.NotNil(t, inv.TotalAmount)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "Test Company", invoice.Deref(inv.CustomerName))
	assert.Nil(t, inv.VendorName)
	assert.InDelta(t, 0.55, inv.ConfidenceScore, 1e-9)
}

func TestConfidenceCapped(t *testing.T) {
	v, n, d := "Acme LLC", "A-1", "2024-01-01"
	total := decimal.NewFromInt(10)
	inv := invoice.Invoice{VendorName: &v, InvoiceNumber: &n, Date: &d, TotalAmount: &total}
	assert.InDelta(t, 0.7, fallback.Confidence(inv), 1e-9)
}
