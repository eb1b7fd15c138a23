package templates

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
)

const (
	BoltonMaguireID = "bolton_maguire_llp"

	// SpecializedConfidence is fixed because the layout is known.
	SpecializedConfidence = 0.95
	maxTimekeepers        = 8
)

var (
	boltonTokens = []string{"Bolton", "Maguire", "LLP"}

	personName = `([A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][A-Za-z'\-]+)+)`
	money      = `(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`

	// Kim Park   12.5   450.00   $5,625.00
	reTimekeeperRow = regexp.MustCompile(`^\W*` + personName + `\s+(\d+(?:\.\d+)?)\s+\$?` + money + `\s+\$` + money)
	// Kim Park ........ $5,625.00
	reNameAmount = regexp.MustCompile(`^\W*` + personName + `\b.*?\$` + money)

	significantAmount = decimal.NewFromInt(1000)
)

// BoltonMaguire extracts the Bolton & Maguire LLP legal-services invoice,
// whose fee table lists one timekeeper per row with hours, rate and total.
type BoltonMaguire struct{}

func NewBoltonMaguire() BoltonMaguire { return BoltonMaguire{} }

func (BoltonMaguire) ID() string { return BoltonMaguireID }

func (BoltonMaguire) Matches(raw invoice.RawText) bool {
	return containsAll(raw.String(), boltonTokens)
}

func (b BoltonMaguire) Extract(raw invoice.RawText) invoice.Invoice {
	inv := patterns.Harvest(raw)
	// the firm is the vendor; client names near the top must not win
	inv.VendorName = invoice.String(boltonVendorLine(raw.Lines()))
	items := timekeeperItems(raw.Lines())
	if len(items) == 0 {
		items = significantNameAmounts(raw.Lines())
	}
	inv.LineItems = items
	inv.ConfidenceScore = SpecializedConfidence
	inv.Method = constants.MethodSpecialized
	return inv
}

// boltonVendorLine is the first line naming the firm, or its canonical name.
func boltonVendorLine(lines []string) string {
	for _, l := range lines {
		if strings.Contains(l, "Bolton") && strings.Contains(l, "Maguire") {
			return strings.TrimSpace(l)
		}
	}
	return "Bolton & Maguire LLP"
}

// timekeeperItems reads "name hours rate $total" rows; first occurrence of a
// name wins and at most maxTimekeepers rows are kept.
func timekeeperItems(lines []string) []invoice.LineItem {
	seen := make(map[string]struct{})
	items := make([]invoice.LineItem, 0, maxTimekeepers)
	for _, l := range lines {
		m := reTimekeeperRow.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		name := normalizeName(m[1])
		if _, dup := seen[name]; dup {
			continue
		}
		hours, ok1 := patterns.ParseMoney(m[2])
		rate, ok2 := patterns.ParseMoney(m[3])
		total, ok3 := patterns.ParseMoney(m[4])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		seen[name] = struct{}{}
		items = append(items, invoice.LineItem{
			Description: "Legal services - " + name,
			Quantity:    hours,
			UnitPrice:   rate,
			Total:       total,
		})
		if len(items) == maxTimekeepers {
			break
		}
	}
	return items
}

// significantNameAmounts is the looser "name ... $amount" pass, keeping only
// amounts above significantAmount.
func significantNameAmounts(lines []string) []invoice.LineItem {
	seen := make(map[string]struct{})
	items := make([]invoice.LineItem, 0, maxTimekeepers)
	for _, l := range lines {
		m := reNameAmount.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		amount, ok := patterns.ParseMoney(m[2])
		if !ok || !amount.GreaterThan(significantAmount) {
			continue
		}
		name := normalizeName(m[1])
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		items = append(items, invoice.LineItem{
			Description: "Legal services - " + name,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   amount,
			Total:       amount,
		})
		if len(items) == maxTimekeepers {
			break
		}
	}
	return items
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
