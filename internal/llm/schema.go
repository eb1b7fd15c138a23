package llm

// BuildInvoiceJSONSchema returns the JSON-Schema checked after sanitizing.
// It is permissive on purpose: every field is optional and nullable, the
// acceptance rule lives in ModelExtractor.
func BuildInvoiceJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": nullable("string"),
			"quantity":    nullable("number"),
			"unit_price":  nullable("number"),
			"total":       nullable("number"),
		},
	}
	props := map[string]any{
		"vendor_name":    nullable("string"),
		"invoice_number": nullable("string"),
		"date":           nullable("string"),
		"total_amount":   nullable("number"),
		"currency":       nullable("string"),
		"tax_amount":     nullable("number"),
		"payment_terms":  nullable("string"),
		"customer_name":  nullable("string"),
		"line_items":     map[string]any{"type": []any{"array", "null"}, "items": item},
		"confidence_score": map[string]any{
			"type":    []any{"number", "null"},
			"minimum": 0.0,
			"maximum": 1.0,
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func nullable(t string) map[string]any {
	return map[string]any{"type": []any{t, "null"}}
}
