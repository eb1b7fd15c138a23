package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate    = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2})\b`)
	reCurr    = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy)\b|[$£€]`)
	reAmount  = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
	reInvoice = regexp.MustCompile(`\binvoice\b`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// heuristicConfidence scores decoded text by the invoice artifacts it shows.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if reInvoice.MatchString(txtL) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
