package patterns

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// MaxLineItems caps how many rows a single extraction keeps.
const MaxLineItems = 50

// description, quantity, unit price, line total
var reItemRow = regexp.MustCompile(`^(.*?[A-Za-z].*?)\s+(\d+(?:\.\d+)?)\s+(?:x\s+)?\$?\s?` + moneyPattern + `\s+\$?\s?` + moneyPattern + `$`)

var itemStopWords = []string{"subtotal", "total", "tax", "balance", "amount due"}

// LineItems parses generic "description qty unit_price total" rows.
func LineItems(lines []string) []invoice.LineItem {
	var out []invoice.LineItem
	for _, l := range lines {
		m := reItemRow.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[1])
		if isSummaryRow(desc) {
			continue
		}
		qty, ok1 := ParseMoney(m[2])
		price, ok2 := ParseMoney(m[3])
		total, ok3 := ParseMoney(m[4])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		out = append(out, invoice.LineItem{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			Total:       total,
		})
		if len(out) == MaxLineItems {
			break
		}
	}
	return out
}

func isSummaryRow(desc string) bool {
	d := strings.ToLower(desc)
	for _, w := range itemStopWords {
		if strings.HasPrefix(d, w) {
			return true
		}
	}
	return false
}

// LineTotalMatches reports whether total is within tolerance of qty*price.
// Tolerance is one cent per dollar of total, never less than one cent.
func LineTotalMatches(it invoice.LineItem) bool {
	expected := it.Quantity.Mul(it.UnitPrice)
	tol := decimal.Max(decimal.NewFromInt(1), it.Total.Abs()).Mul(decimal.NewFromFloat(0.01))
	return expected.Sub(it.Total).Abs().LessThanOrEqual(tol)
}
