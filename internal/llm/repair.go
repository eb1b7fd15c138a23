package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// RepairJSON recovers a JSON object from free-form model output: trim, drop
// code fences, keep the first '{' through the last '}', then decode.
func RepairJSON(output string) ([]byte, error) {
	s := strings.TrimSpace(output)
	s = stripFences(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no json object found", ErrMalformed)
	}
	candidate := s[start : end+1]

	var m map[string]any
	if err := json.Unmarshal([]byte(candidate), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return []byte(candidate), nil
}

// Fence markers may share a line with the JSON, so only the marker and its
// language tag are removed.
var (
	reFenceOpen  = regexp.MustCompile("(?m)^\\s*```[A-Za-z0-9_-]*")
	reFenceClose = regexp.MustCompile("(?m)```\\s*$")
)

func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
