package invoice

import (
	"strings"
	"unicode/utf8"
)

// RawText is the OCR output for one document: ordered, trimmed, non-empty lines.
type RawText struct {
	lines []string
	text  string
}

// NewRawText splits s on newlines, trimming each line and dropping blanks.
func NewRawText(s string) RawText {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return FromLines(strings.Split(s, "\n"))
}

// FromLines builds RawText from already separated OCR lines.
func FromLines(in []string) RawText {
	lines := make([]string, 0, len(in))
	for _, l := range in {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return RawText{lines: lines, text: strings.Join(lines, "\n")}
}

// Lines returns a copy of the lines.
func (r RawText) Lines() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r RawText) String() string { return r.text }

// Len is the length of the joined text in bytes.
func (r RawText) Len() int { return len(r.text) }

// Head returns at most the first n characters of the joined text.
func (r RawText) Head(n int) string {
	if n <= 0 {
		return r.text
	}
	return Truncate(r.text, n)
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}

// CharLen counts characters rather than bytes.
func CharLen(s string) int { return utf8.RuneCountInString(s) }
