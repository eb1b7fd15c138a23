package patterns

import (
	"regexp"
	"strings"
)

var (
	reInvoiceLabel  = regexp.MustCompile(`(?i)\binvoice\s*(?:#|number|num\.?|no\.?)\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`)
	reRefLabel      = regexp.MustCompile(`(?i)\b(?:inv|reference|ref|bill)\s*(?:#|no\.?|number)?\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`)
	reShapeDLD      = regexp.MustCompile(`\b(\d{2,}-[A-Z]{1,4}-\d{2,})\b`)
	reShapePrefixed = regexp.MustCompile(`\b([A-Z]{2,5}-\d{3,})\b`)

	reLegalSuffix = regexp.MustCompile(`(?i)\b(?:LLC|Inc|Corp|LLP)\b`)

	reCustomerLabel = regexp.MustCompile(`(?im)^[ \t]*(?:bill(?:ed)?[ \t]+to[ \t]*:?|sold[ \t]+to[ \t]*:?|(?:customer(?:[ \t]+name)?|client)[ \t]*:)[ \t]*([^\n]*)$`)

	reTermsLabel = regexp.MustCompile(`(?im)\b(?:payment\s+terms|terms)\s*[:\-]\s*([^\n]+)$`)
	reTermsBare  = regexp.MustCompile(`(?i)\b(net\s*\d{1,3}|due\s+(?:on|upon)\s+receipt)\b`)

	reCurrencyCode = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD|JPY|CHF|INR|MXN)\b`)
)

// InvoiceNumberRules: labeled "Invoice #: X" first, then reference labels,
// then bare identifier shapes.
var InvoiceNumberRules = []Rule{
	Regex("invoice_label", reInvoiceLabel, hasDigit),
	Regex("reference_label", reRefLabel, hasDigit),
	Regex("digits_letters_digits", reShapeDLD, hasDigit),
	Regex("prefixed_number", reShapePrefixed, hasDigit),
}

// InvoiceNumber returns the invoice identifier.
func InvoiceNumber(text string) (string, bool) {
	return First(text, InvoiceNumberRules)
}

// VendorScanLines bounds how far down the page the vendor heuristic looks.
const VendorScanLines = 5

// Vendor returns the first of the leading lines that names a legal entity.
func Vendor(lines []string) (string, bool) {
	for i, l := range lines {
		if i >= VendorScanLines {
			break
		}
		if reLegalSuffix.MatchString(l) {
			return strings.TrimSpace(l), true
		}
	}
	return "", false
}

// Customer returns the billed party. A bare "Bill To:" label takes the next line.
func Customer(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for _, m := range reCustomerLabel.FindAllStringSubmatchIndex(text, -1) {
		v := strings.TrimSpace(text[m[2]:m[3]])
		if v != "" {
			return v, true
		}
		// label alone on its line: use the following line
		lineNo := strings.Count(text[:m[0]], "\n")
		if lineNo+1 < len(lines) {
			if next := strings.TrimSpace(lines[lineNo+1]); next != "" {
				return next, true
			}
		}
	}
	return "", false
}

// PaymentTermsRules: explicit "Terms:" label, then Net-N / due-on-receipt phrases.
var PaymentTermsRules = []Rule{
	Regex("terms_label", reTermsLabel, nil),
	Regex("terms_phrase", reTermsBare, nil),
}

// PaymentTerms returns the payment terms text.
func PaymentTerms(text string) (string, bool) {
	return First(text, PaymentTermsRules)
}

// Currency returns an ISO code named in text, a code implied by a currency
// symbol, or def.
func Currency(text, def string) string {
	if m := reCurrencyCode.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	switch {
	case strings.Contains(text, "€"):
		return "EUR"
	case strings.Contains(text, "£"):
		return "GBP"
	case strings.Contains(text, "¥"):
		return "JPY"
	}
	return def
}
