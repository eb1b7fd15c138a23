package llm

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
)

// DefaultModelConfidence applies when the model omits confidence_score.
const DefaultModelConfidence = 0.85

type wireItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type wireInvoice struct {
	VendorName      *string          `json:"vendor_name"`
	InvoiceNumber   *string          `json:"invoice_number"`
	Date            *string          `json:"date"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	Currency        string           `json:"currency"`
	TaxAmount       *decimal.Decimal `json:"tax_amount"`
	PaymentTerms    *string          `json:"payment_terms"`
	CustomerName    *string          `json:"customer_name"`
	LineItems       []wireItem       `json:"line_items"`
	ConfidenceScore *float64         `json:"confidence_score"`
}

// decodeInvoice maps sanitized model JSON onto the canonical record.
func decodeInvoice(doc []byte) (invoice.Invoice, error) {
	var w wireInvoice
	if err := json.Unmarshal(doc, &w); err != nil {
		return invoice.Invoice{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	inv := invoice.Invoice{
		VendorName:      w.VendorName,
		InvoiceNumber:   w.InvoiceNumber,
		TotalAmount:     w.TotalAmount,
		Currency:        w.Currency,
		TaxAmount:       w.TaxAmount,
		PaymentTerms:    w.PaymentTerms,
		CustomerName:    w.CustomerName,
		LineItems:       make([]invoice.LineItem, 0, len(w.LineItems)),
		ConfidenceScore: DefaultModelConfidence,
		Method:          constants.MethodModel,
	}
	if inv.Currency == "" {
		inv.Currency = constants.DefaultCurrency
	}
	// dates that do not normalize to YYYY-MM-DD are dropped
	if w.Date != nil {
		if iso, ok := patterns.NormalizeDate(*w.Date); ok {
			inv.Date = &iso
		}
	}
	if w.ConfidenceScore != nil {
		inv.ConfidenceScore = *w.ConfidenceScore
	}
	for _, it := range w.LineItems {
		inv.LineItems = append(inv.LineItems, invoice.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	return inv, nil
}
