package llm

import (
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// MaxPromptTextChars bounds how much document text goes into one prompt.
const MaxPromptTextChars = 12000

// BuildExtractionPrompt asks for the fixed invoice field set as a single JSON object.
func BuildExtractionPrompt(rawText, docType string) string {
	docType = strings.TrimSpace(docType)
	if docType == "" {
		docType = constants.DefaultDocumentType
	}
	text := strings.TrimSpace(rawText)
	if cut := invoice.Truncate(text, MaxPromptTextChars); len(cut) < len(text) {
		text = cut + "\n...(truncated)"
	}

	var b strings.Builder
	b.WriteString("You are an expert at extracting structured data from " + docType + " text.\n\n")
	b.WriteString("Please analyze this raw text extracted from a document and return a JSON object with the following fields:\n")
	for _, f := range []string{
		"vendor_name: Company/vendor name",
		"invoice_number: Invoice or reference number",
		"date: Date (in YYYY-MM-DD format)",
		"total_amount: Total amount (as number)",
		"currency: Currency code (USD, etc.)",
		"line_items: Array of items with description, quantity, unit_price, total",
		"tax_amount: Tax amount if present",
		"payment_terms: Payment terms if specified",
		"customer_name: Billed customer if present",
		"confidence_score: Your confidence in the extraction (0-1)",
	} {
		b.WriteString("- " + f + "\n")
	}
	b.WriteString("\nIf a field cannot be determined, use null. Be as accurate as possible. Some fields may not be present in the text.\n")
	b.WriteString("The fields may have different names in the text, so map them to the names above.\n\n")
	b.WriteString("Raw text:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn only valid JSON:")
	return b.String()
}
