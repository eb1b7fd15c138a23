package llm_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

func TestBuildExtractionPromptTruncatesOnCharacters(t *testing.T) {
	text := strings.Repeat("€", llm.MaxPromptTextChars+5)
	prompt := llm.BuildExtractionPrompt(text, "invoice")

	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, "...(truncated)")
	assert.Equal(t, llm.MaxPromptTextChars, strings.Count(prompt, "€"))
}
