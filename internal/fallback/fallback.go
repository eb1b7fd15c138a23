// Package fallback is the last-resort extractor: pure pattern matching that
// always yields a record, however sparse.
package fallback

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
)

const (
	BaseConfidence     = 0.1
	PerFieldConfidence = 0.15
	MaxConfidence      = 0.7
)

type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract never fails. Confidence grows with each essential field found.
func (e *Extractor) Extract(raw invoice.RawText) invoice.Invoice {
	inv := patterns.Harvest(raw)
	inv.Method = constants.MethodFallback
	inv.ConfidenceScore = Confidence(inv)

	e.logger.Debug("fallback.extract.ok",
		"vendor", inv.VendorName != nil,
		"invoice_number", inv.InvoiceNumber != nil,
		"total", inv.TotalAmount != nil,
		"date", inv.Date != nil,
		"line_items", len(inv.LineItems),
		"confidence", inv.ConfidenceScore,
	)
	return inv
}

// Confidence scores a pattern-only record.
func Confidence(inv invoice.Invoice) float64 {
	found := 0
	for _, ok := range []bool{
		inv.VendorName != nil,
		inv.InvoiceNumber != nil,
		inv.TotalAmount != nil,
		inv.Date != nil,
	} {
		if ok {
			found++
		}
	}
	c := BaseConfidence + PerFieldConfidence*float64(found)
	if c > MaxConfidence {
		c = MaxConfidence
	}
	return c
}
