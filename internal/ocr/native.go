package ocr

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// nativePDFText reads the embedded text layer row by row. Scanned PDFs
// come back empty rather than failing.
func nativePDFText(path string, maxPages int) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	n := r.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	var b strings.Builder
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", n, fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return b.String(), n, nil
}
