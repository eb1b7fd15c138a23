package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "invoice-extractor", "info", "json")
	l.Debug("hidden")
	l.Info("pipeline.extract.ok", "elapsed_ms", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "invoice-extractor", rec["service"])
	assert.Equal(t, "pipeline.extract.ok", rec["msg"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "svc", "debug", "TEXT").Debug("x")
	assert.Contains(t, buf.String(), "service=svc")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
