package patterns

import (
	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// Harvest runs every field extractor over raw and returns the populated
// record. Method and ConfidenceScore are left for the caller to stamp.
func Harvest(raw invoice.RawText) invoice.Invoice {
	text := raw.String()
	lines := raw.Lines()

	inv := invoice.Invoice{
		Currency:  Currency(text, constants.DefaultCurrency),
		LineItems: LineItems(lines),
	}
	if v, ok := Vendor(lines); ok {
		inv.VendorName = &v
	}
	if v, ok := InvoiceNumber(text); ok {
		inv.InvoiceNumber = &v
	}
	if v, ok := Date(text); ok {
		inv.Date = &v
	}
	if v, ok := MaxAmount(text); ok {
		inv.TotalAmount = &v
	}
	if v, ok := Tax(text); ok {
		inv.TaxAmount = &v
	}
	if v, ok := PaymentTerms(text); ok {
		inv.PaymentTerms = &v
	}
	if v, ok := Customer(text); ok {
		inv.CustomerName = &v
	}
	if inv.LineItems == nil {
		inv.LineItems = []invoice.LineItem{}
	}
	return inv
}
