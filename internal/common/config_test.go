package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, 10, cfg.Server.MaxUploadMB)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes())
	assert.Equal(t, int32(2000), cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, "warn", cfg.Validation.LineItemCheck)
	assert.True(t, cfg.LLM.Review)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("LLM_RETRY_DELAY", "250ms")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("LLM_REVIEW", "false")

	cfg := LoadConfig()
	assert.False(t, cfg.LLM.Review)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.RetryDelay)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("OCR_MODE", "magic")
	t.Setenv("LINE_ITEM_CHECK", "strict")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")

	err := LoadConfig().Validate()
	require.Error(t, err)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, appErr.Message, "OCR_MODE")
	assert.Contains(t, appErr.Message, "LINE_ITEM_CHECK")
	assert.Contains(t, appErr.Message, "ANTHROPIC_API_KEY")
}

func TestValidatorRequestRules(t *testing.T) {
	require.NoError(t, NewValidator().
		Field("file", "Scan.PDF", Extension("pdf")).
		Field("id", "9b2f3c1e-7a4d-4c2b-9e1f-0a1b2c3d4e5f", UUID).
		Field("document_type", "€€€", MaxLength(3)).
		Err())

	err := NewValidator().
		Field("file", "notes.txt", Extension("pdf")).
		Field("id", "nope", UUID).
		Field("document_type", "€€€€", MaxLength(3)).
		Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "unsupported extension")
	assert.Contains(t, appErr.Message, "must be a valid UUID")
	assert.Contains(t, appErr.Message, "must be at most 3 characters")
}
