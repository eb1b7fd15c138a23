package ocr

import (
	"regexp"
	"strings"
)

var (
	// stray box-drawing and bullet glyphs tesseract emits for table borders
	reBoxNoise   = regexp.MustCompile(`[│┃┆┇┊┋╎╏║▏▕|]{2,}|[■□▪▫●◦•]`)
	reHSpace     = regexp.MustCompile(`[ \t\x{00A0}]+`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, drops form feeds, collapses runs of
// horizontal whitespace and trims each line.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reHSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
