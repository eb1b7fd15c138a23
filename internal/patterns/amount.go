package patterns

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyPattern = `(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`

var (
	reDollarAmount = regexp.MustCompile(`(?:\$|\bUSD)\s?` + moneyPattern + `\b`)
	reTaxLabel     = regexp.MustCompile(`(?i)\b(?:sales\s+)?(?:tax|vat|gst)(?:\s+amount)?\s*(?:\([^)\n]*\))?\s*[:\-]?\s*(?:\$|USD\s?)?\s?` + moneyPattern)
)

// ParseMoney parses "1,234.56", "$1,234.56" or "1234" into a decimal.
func ParseMoney(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Amounts returns every dollar amount in text, in order of appearance.
func Amounts(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range reDollarAmount.FindAllStringSubmatch(text, -1) {
		if d, ok := ParseMoney(m[1]); ok {
			out = append(out, d)
		}
	}
	return out
}

// MaxAmount returns the largest dollar amount in text. The grand total is
// assumed to be the largest figure on the invoice; a large line subtotal can
// defeat this.
func MaxAmount(text string) (decimal.Decimal, bool) {
	all := Amounts(text)
	if len(all) == 0 {
		return decimal.Zero, false
	}
	return decimal.Max(all[0], all[1:]...), true
}

// TaxRules finds a labeled tax figure.
var TaxRules = []Rule{
	Regex("tax_label", reTaxLabel, func(s string) (string, bool) {
		d, ok := ParseMoney(s)
		if !ok {
			return "", false
		}
		return d.StringFixed(2), true
	}),
}

// Tax returns the labeled tax amount, if any.
func Tax(text string) (decimal.Decimal, bool) {
	v, ok := First(text, TaxRules)
	if !ok {
		return decimal.Zero, false
	}
	return ParseMoney(v)
}
