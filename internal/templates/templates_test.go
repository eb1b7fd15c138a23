package templates_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
)

const boltonText = `Bolton & Maguire LLP
200 Park Avenue, New York
Invoice Number: BM-2024-0042
Invoice Date: 03/31/2024
Bill To: Globex Corporation
Timekeeper Hours Rate Amount
Kim Park 12.5 450.00 $5,625.00
Robert J. Bolton 4.0 800.00 $3,200.00
Kim Park 1.0 450.00 $450.00
Total Due: $8,825.00`

func TestClassifyBolton(t *testing.T) {
	r := templates.DefaultRegistry()
	p := r.Classify(invoice.NewRawText(boltonText))
	assert.True(t, p.IsSpecialized())
	assert.Equal(t, templates.BoltonMaguireID, p.TemplateID)
}

func TestClassifyRequiresEveryToken(t *testing.T) {
	r := templates.DefaultRegistry()
	assert.False(t, r.Classify(invoice.NewRawText("Bolton Industries\nTotal $5")).IsSpecialized())
	// token matching is case sensitive
	assert.False(t, r.Classify(invoice.NewRawText("bolton maguire llp")).IsSpecialized())
}

func TestClassifyNilRegistry(t *testing.T) {
	var r *templates.Registry
	assert.Equal(t, invoice.Generic(), r.Classify(invoice.NewRawText(boltonText)))
}

func TestBoltonExtract(t *testing.T) {
	tpl, ok := templates.DefaultRegistry().Lookup(templates.BoltonMaguireID)
	require.True(t, ok)

	inv := tpl.Extract(invoice.NewRawText(boltonText))
	assert.Equal(t, constants.MethodSpecialized, inv.Method)
	assert.Equal(t, templates.SpecializedConfidence, inv.ConfidenceScore)
	assert.Equal(t, "Bolton & Maguire LLP", invoice.Deref(inv.VendorName))
	assert.Equal(t, "BM-2024-0042", invoice.Deref(inv.InvoiceNumber))
	assert.Equal(t, "2024-03-31", invoice.Deref(inv.Date))
	require.NotNil(t, inv.TotalAmount)
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("8825")))

	require.Len(t, inv.LineItems, 2, "duplicate timekeeper is dropped")
	assert.Equal(t, "Legal services - Kim Park", inv.LineItems[0].Description)
	assert.True(t, inv.LineItems[0].Quantity.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, inv.LineItems[0].Total.Equal(decimal.RequireFromString("5625")))
	assert.Equal(t, "Legal services - Robert J. Bolton", inv.LineItems[1].Description)
}

func TestBoltonLooseAmounts(t *testing.T) {
	text := "Bolton & Maguire LLP\nSummary of fees\nKim Park services $2,500.00\nAnn Lee copies $40.00"
	inv := templates.NewBoltonMaguire().Extract(invoice.NewRawText(text))
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "Legal services - Kim Park", inv.LineItems[0].Description)
	assert.True(t, inv.LineItems[0].Quantity.Equal(decimal.NewFromInt(1)))
}

var manyTimekeepers = []string{
	"Alex Smith", "Beth Jones", "Carl Young", "Dana White", "Eric Brown",
	"Fay Green", "Gus Black", "Hana Stone", "Ivan Reed", "Jo Marsh",
}

func TestBoltonCapsTimekeeperRows(t *testing.T) {
	tpl, _ := templates.DefaultRegistry().Lookup(templates.BoltonMaguireID)

	var tabular, loose strings.Builder
	tabular.WriteString("Bolton & Maguire LLP\n")
	loose.WriteString("Bolton & Maguire LLP\n")
	for _, name := range manyTimekeepers {
		tabular.WriteString(name + " 2.0 500.00 $1,000.00\n")
		loose.WriteString(name + " ........ $2,000.00\n")
	}

	inv := tpl.Extract(invoice.NewRawText(tabular.String()))
	require.Len(t, inv.LineItems, 8)
	assert.Equal(t, "Legal services - Alex Smith", inv.LineItems[0].Description)
	assert.Equal(t, "Legal services - Hana Stone", inv.LineItems[7].Description)

	inv = tpl.Extract(invoice.NewRawText(loose.String()))
	require.Len(t, inv.LineItems, 8)
	assert.True(t, inv.LineItems[0].Total.Equal(decimal.NewFromInt(2000)))
}

func TestBoltonVendorIgnoresClientHeader(t *testing.T) {
	tpl, _ := templates.DefaultRegistry().Lookup(templates.BoltonMaguireID)
	text := "Acme Inc\nStatement of account\nBolton & Maguire LLP\nInvoice Number: BM-1\nTotal Due: $1,500.00"

	inv := tpl.Extract(invoice.NewRawText(text))
	assert.Equal(t, "Bolton & Maguire LLP", invoice.Deref(inv.VendorName))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	_, err := templates.NewRegistry(templates.NewBoltonMaguire(), templates.NewBoltonMaguire())
	require.Error(t, err)

	r, err := templates.NewRegistry()
	require.NoError(t, err)
	require.Error(t, r.Register(templates.TokenTemplate{Tokens: []string{"x"}}))
}

func TestLoadTokenProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	doc := `templates:
  - id: acme
    tokens: [ACME, "Remit to"]
    vendor_name: ACME Corp
  - id: globex
    tokens: [GLOBEX]
    confidence: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	r := templates.DefaultRegistry()
	n, err := templates.LoadTokenProfiles(r, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{templates.BoltonMaguireID, "acme", "globex"}, r.IDs())

	raw := invoice.NewRawText("ACME\nRemit to: PO Box 1\nInvoice #: A-1\nTotal $10.00")
	p := r.Classify(raw)
	require.Equal(t, "acme", p.TemplateID)

	tpl, _ := r.Lookup(p.TemplateID)
	inv := tpl.Extract(raw)
	assert.Equal(t, "ACME Corp", invoice.Deref(inv.VendorName))
	assert.Equal(t, 0.9, inv.ConfidenceScore)
	assert.Equal(t, constants.MethodSpecialized, inv.Method)
}

func TestParseTokenProfilesValidation(t *testing.T) {
	_, err := templates.ParseTokenProfiles([]byte("templates:\n  - id: x\n"))
	require.Error(t, err)
	_, err = templates.ParseTokenProfiles([]byte("templates:\n  - tokens: [a]\n"))
	require.Error(t, err)
	_, err = templates.ParseTokenProfiles([]byte("templates: [oops"))
	require.Error(t, err)
}
