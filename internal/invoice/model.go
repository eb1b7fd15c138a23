package invoice

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Invoice is the canonical structured record. Optional fields are nil when
// nothing was found; a strategy builds it once and callers must not mutate it.
type Invoice struct {
	VendorName      *string          `json:"vendor_name"`
	InvoiceNumber   *string          `json:"invoice_number"`
	Date            *string          `json:"date"` // YYYY-MM-DD
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	Currency        string           `json:"currency"`
	TaxAmount       *decimal.Decimal `json:"tax_amount"`
	PaymentTerms    *string          `json:"payment_terms"`
	CustomerName    *string          `json:"customer_name"`
	LineItems       []LineItem       `json:"line_items"`
	ConfidenceScore float64          `json:"confidence_score"`
	Method          constants.Method `json:"extraction_method"`
}

// LineItem is a single billed row. Total is expected to be Quantity*UnitPrice
// but extraction does not enforce it.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Report is the quality rubric outcome attached to every invoice.
type Report struct {
	IsValid      bool     `json:"is_valid"`
	QualityScore float64  `json:"quality_score"`
	Warnings     []string `json:"warnings"`
	Suggestions  []string `json:"suggestions"`
	// ModelReview is the model's advisory verdict, or {"error": ...}. It
	// does not feed IsValid or QualityScore.
	ModelReview json.RawMessage `json:"claude_validation,omitempty"`
}

// EssentialFields counts how many of vendor, total and date are set.
func (inv Invoice) EssentialFields() int {
	n := 0
	if inv.VendorName != nil {
		n++
	}
	if inv.TotalAmount != nil {
		n++
	}
	if inv.Date != nil {
		n++
	}
	return n
}

// HasPositiveTotal reports whether TotalAmount is set and > 0.
func (inv Invoice) HasPositiveTotal() bool {
	return inv.TotalAmount != nil && inv.TotalAmount.IsPositive()
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Decimal returns a pointer to d.
func Decimal(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// Deref returns *p or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func init() {
	// Amounts serialize as JSON numbers, matching what the model returns.
	decimal.MarshalJSONWithoutQuotes = true
}
