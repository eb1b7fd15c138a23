// Package patterns holds the field-level extraction rules shared by the
// specialized templates and the fallback extractor. Every field is a list of
// rules tried most-specific-first; the first rule that yields a structurally
// valid value wins.
package patterns

import (
	"regexp"
	"strings"
)

// Rule is one candidate matcher for a field.
type Rule struct {
	Name  string
	Match func(text string) (string, bool)
}

// Transform validates/normalizes a raw capture. Returning false rejects it.
type Transform func(string) (string, bool)

// Regex builds a rule from a pattern whose first capture group is the value.
// Every match in the text is tried in order until transform accepts one.
func Regex(name string, re *regexp.Regexp, transform Transform) Rule {
	if transform == nil {
		transform = trimmed
	}
	return Rule{
		Name: name,
		Match: func(text string) (string, bool) {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if len(m) < 2 {
					continue
				}
				if v, ok := transform(m[1]); ok {
					return v, true
				}
			}
			return "", false
		},
	}
}

// First evaluates rules in order and returns the first match.
func First(text string, rules []Rule) (string, bool) {
	v, _, ok := FirstNamed(text, rules)
	return v, ok
}

// FirstNamed is First but also reports which rule matched.
func FirstNamed(text string, rules []Rule) (value, rule string, ok bool) {
	for _, r := range rules {
		if v, ok := r.Match(text); ok {
			return v, r.Name, true
		}
	}
	return "", "", false
}

func trimmed(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

var reDigit = regexp.MustCompile(`\d`)

// hasDigit keeps identifiers that carry at least one digit.
func hasDigit(s string) (string, bool) {
	s = strings.Trim(strings.TrimSpace(s), ".,;:")
	return s, s != "" && reDigit.MatchString(s)
}
