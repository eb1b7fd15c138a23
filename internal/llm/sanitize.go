package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	moneyFields = []string{"total_amount", "tax_amount"}
	itemMoney   = []string{"quantity", "unit_price", "total"}
	stringKeys  = []string{"vendor_name", "invoice_number", "date", "currency", "payment_terms", "customer_name"}

	allowedKeys = map[string]struct{}{
		"vendor_name": {}, "invoice_number": {}, "date": {}, "total_amount": {},
		"currency": {}, "line_items": {}, "tax_amount": {}, "payment_terms": {},
		"customer_name": {}, "confidence_score": {},
	}
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (vendor -> vendor_name, total -> total_amount, ...)
// - Coerces money strings like "$1,234.50" to numbers; drops ones that don't parse
// - Drops null/empty strings
// - Removes unknown keys
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) synonyms
	renamed("vendor", "vendor_name")
	renamed("merchant_name", "vendor_name")
	renamed("total", "total_amount")
	renamed("amount", "total_amount")
	renamed("invoice_date", "date")
	renamed("tax", "tax_amount")
	renamed("invoice_no", "invoice_number")
	renamed("currency_code", "currency")
	renamed("items", "line_items")
	renamed("confidence", "confidence_score")

	// 2) money: numbers stay numbers, strings are parsed
	for _, k := range moneyFields {
		if reason, ok := coerceMoney(m, k); !ok {
			dropped = append(dropped, k+"("+reason+")")
		}
	}

	// 3) line items: drop rows that aren't objects, coerce their numbers
	if v, ok := m["line_items"]; ok {
		rows, isList := v.([]any)
		if !isList {
			delete(m, "line_items")
			dropped = append(dropped, "line_items(type)")
		} else {
			kept := make([]any, 0, len(rows))
			for _, r := range rows {
				row, isObj := r.(map[string]any)
				if !isObj {
					continue
				}
				for _, k := range itemMoney {
					coerceMoney(row, k)
				}
				if d, ok := row["description"].(string); ok {
					row["description"] = strings.TrimSpace(d)
				}
				kept = append(kept, row)
			}
			m["line_items"] = kept
		}
	}

	// 4) remove unknown keys
	for k := range maps.Clone(m) {
		if _, ok := allowedKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// 5) trim strings, drop empties and nulls
	for _, k := range stringKeys {
		switch v := m[k].(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case nil:
			delete(m, k)
		}
	}
	if c, ok := m["currency"].(string); ok {
		m["currency"] = strings.ToUpper(c)
	}
	if c, ok := m["confidence_score"].(float64); !ok || c < 0 || c > 1 {
		delete(m, "confidence_score")
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// coerceMoney rewrites m[k] as a JSON number. Missing keys are fine.
func coerceMoney(m map[string]any, k string) (string, bool) {
	v, ok := m[k]
	if !ok {
		return "", true
	}
	switch t := v.(type) {
	case float64:
		return "", true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimLeft(s, "$€£¥")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if s == "" {
			delete(m, k)
			return "empty", false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			delete(m, k)
			return "unparseable", false
		}
		f, _ := d.Float64()
		m[k] = f
		return "", true
	case nil:
		delete(m, k)
		return "null", false
	default:
		delete(m, k)
		return "type", false
	}
}
