package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const datePattern = `(\d{4}-\d{1,2}-\d{1,2}|\d{4}/\d{1,2}/\d{1,2}|\d{1,2}[/-]\d{1,2}[/-](?:\d{4}|\d{2})|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})`

var (
	reISODate   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	reUSDate    = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})$`)
	reMonthDate = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})$`)

	reDateInvoiceLabel = regexp.MustCompile(`(?i)\b(?:invoice\s+date|date\s+of\s+invoice|date\s+issued|issue\s+date)\s*[:\-]?\s*` + datePattern)
	reDateLineLabel    = regexp.MustCompile(`(?im)^\s*(?:date|dated)\s*[:\-]?\s*` + datePattern)
	reDateAnyLabel     = regexp.MustCompile(`(?i)\bdate\s*[:\-]\s*` + datePattern)
	reDateBare         = regexp.MustCompile(`\b` + datePattern)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "sept": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// DateRules is ordered from labeled invoice dates down to any date-shaped token.
var DateRules = []Rule{
	Regex("invoice_date_label", reDateInvoiceLabel, NormalizeDate),
	Regex("date_line_label", reDateLineLabel, NormalizeDate),
	Regex("date_label", reDateAnyLabel, NormalizeDate),
	Regex("bare_date", reDateBare, NormalizeDate),
}

// Date returns the invoice date as YYYY-MM-DD.
func Date(text string) (string, bool) {
	return First(text, DateRules)
}

// NormalizeDate converts MM/DD/YY, MM/DD/YYYY, YYYY-MM-DD, YYYY/MM/DD and
// "Month D, YYYY" to YYYY-MM-DD. Two-digit years below 50 are 20xx, the rest 19xx.
// Impossible calendar dates are rejected.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)

	if m := reISODate.FindStringSubmatch(s); m != nil {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reUSDate.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year = expandYear(year)
		}
		return buildDate(year, atoi(m[1]), atoi(m[2]))
	}
	if m := reMonthDate.FindStringSubmatch(s); m != nil {
		name := strings.ToLower(m[1])
		mon, ok := months[name]
		if !ok && len(name) > 3 {
			mon, ok = months[name[:3]]
		}
		if !ok {
			return "", false
		}
		return buildDate(atoi(m[3]), int(mon), atoi(m[2]))
	}
	return "", false
}

func expandYear(yy int) int {
	if yy < 50 {
		return 2000 + yy
	}
	return 1900 + yy
}

func buildDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
