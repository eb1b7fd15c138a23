// Package quality scores an extracted invoice and explains what is missing.
package quality

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
)

// LineItemCheck controls the quantity x unit price cross-check.
type LineItemCheck string

const (
	LineItemCheckOff     LineItemCheck = "off"
	LineItemCheckWarn    LineItemCheck = "warn"
	LineItemCheckEnforce LineItemCheck = "enforce"
)

// ParseLineItemCheck accepts off, warn or enforce (case insensitive).
func ParseLineItemCheck(s string) (LineItemCheck, error) {
	switch c := LineItemCheck(strings.ToLower(strings.TrimSpace(s))); c {
	case LineItemCheckOff, LineItemCheckWarn, LineItemCheckEnforce:
		return c, nil
	case "":
		return LineItemCheckWarn, nil
	default:
		return "", fmt.Errorf("unknown line item check %q", s)
	}
}

const (
	totalChecks  = 5
	minPassed    = 2
	reviewNotice = "Manual review required - low extraction quality"

	WarnVendor        = "Vendor name not found"
	WarnInvoiceNumber = "Invoice number not found"
	WarnTotal         = "Total amount not found or invalid"
	WarnDate          = "Invoice date not found"
	WarnLineItems     = "No line items found"
)

var DefaultLargeAmountThreshold = decimal.NewFromInt(1_000_000)

type Config struct {
	LineItemCheck        LineItemCheck
	LargeAmountThreshold decimal.Decimal
}

func DefaultConfig() Config {
	return Config{LineItemCheck: LineItemCheckWarn, LargeAmountThreshold: DefaultLargeAmountThreshold}
}

type Validator struct {
	cfg    Config
	logger *slog.Logger
}

func NewValidator(cfg Config, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LineItemCheck == "" {
		cfg.LineItemCheck = LineItemCheckWarn
	}
	if !cfg.LargeAmountThreshold.IsPositive() {
		cfg.LargeAmountThreshold = DefaultLargeAmountThreshold
	}
	return &Validator{cfg: cfg, logger: logger}
}

// Validate runs the five field checks. The score is passed/5 and a record is
// valid with at least two passes. raw is kept for checks against the source.
func (v *Validator) Validate(inv invoice.Invoice, raw invoice.RawText) invoice.Report {
	var warnings []string
	passed := 0
	check := func(ok bool, warning string) {
		if ok {
			passed++
			return
		}
		warnings = append(warnings, warning)
	}

	check(inv.VendorName != nil, WarnVendor)
	check(inv.InvoiceNumber != nil, WarnInvoiceNumber)
	check(inv.HasPositiveTotal(), WarnTotal)
	check(inv.Date != nil, WarnDate)

	mismatches := v.lineItemMismatches(inv.LineItems)
	switch {
	case len(inv.LineItems) == 0:
		warnings = append(warnings, WarnLineItems)
	case v.cfg.LineItemCheck == LineItemCheckEnforce && len(mismatches) > 0:
		// the mismatch warnings explain the failed check
	default:
		passed++
	}
	warnings = append(warnings, mismatches...)

	if inv.TotalAmount != nil && inv.TotalAmount.GreaterThan(v.cfg.LargeAmountThreshold) {
		warnings = append(warnings, "Unusually high amount: $"+FormatMoney(*inv.TotalAmount))
	}

	report := invoice.Report{
		IsValid:      passed >= minPassed,
		QualityScore: float64(passed) / totalChecks,
		Warnings:     nonNil(warnings),
		Suggestions:  []string{},
	}
	if !report.IsValid {
		report.Suggestions = append(report.Suggestions, reviewNotice)
	}

	v.logger.Debug("quality.validate",
		"passed", passed,
		"score", report.QualityScore,
		"valid", report.IsValid,
		"warnings", len(report.Warnings),
		"raw_lines", raw.Len(),
	)
	return report
}

func (v *Validator) lineItemMismatches(items []invoice.LineItem) []string {
	if v.cfg.LineItemCheck == LineItemCheckOff {
		return nil
	}
	var out []string
	for i, it := range items {
		if patterns.LineTotalMatches(it) {
			continue
		}
		out = append(out, fmt.Sprintf("Line item %d total %s does not match %s x %s",
			i+1, it.Total.StringFixed(2), it.Quantity.String(), it.UnitPrice.StringFixed(2)))
	}
	return out
}

// FormatMoney renders d with two decimals and thousands separators.
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
