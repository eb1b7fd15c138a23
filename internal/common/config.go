package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	OCR        OCRConfig
	LLM        LLMConfig
	Validation ValidationConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr       string
	MaxUploadMB    int
	RequestTimeout time.Duration
	CORSOrigins    []string
	BatchWorkers   int
}

// DatabaseConfig holds database-related configuration. An empty DSN and
// SQLitePath means results are not persisted.
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	SQLitePath       string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Mode          string // auto | native | exec
	PdfToTextBin  string
	PdfToPpmBin   string
	TesseractBin  string
	TessdataDir   string
	DPI           int
	MaxPages      int
	MinNativeText int
}

// LLMConfig holds model provider configuration
type LLMConfig struct {
	Provider      string // bedrock | anthropic | openai | none
	Model         string
	MaxTokens     int32
	Temperature   float32
	Timeout       time.Duration
	MaxAttempts   int
	RetryDelay    time.Duration
	RateLimit     float64
	RateBurst     int
	AWSRegion     string
	AnthropicKey  string
	OpenAIKey     string
	OpenAIBaseURL string
	// Review adds an advisory model verdict to every validation report.
	Review  bool
	Breaker BreakerConfig
}

type BreakerConfig struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

// ValidationConfig tunes the quality rubric.
type ValidationConfig struct {
	LineItemCheck        string // off | warn | enforce
	LargeAmountThreshold float64
	// TemplatesFile is an optional YAML file of extra token templates.
	TemplatesFile string
}

type LogConfig struct {
	Level  string
	Format string // json | text
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":5000"),
			MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", 10),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 2*time.Minute),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),
			BatchWorkers:   getEnvAsInt("BATCH_WORKERS", 4),
		},
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			SQLitePath:       getEnv("SQLITE_PATH", ""),
		},
		OCR: OCRConfig{
			Mode:          getEnv("OCR_MODE", "auto"),
			PdfToTextBin:  getEnv("PDFTOTEXT_BIN", "pdftotext"),
			PdfToPpmBin:   getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractBin:  getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 10),
			MinNativeText: getEnvAsInt("OCR_MIN_NATIVE_TEXT", 50),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("LLM_PROVIDER", "bedrock")),
			Model:         getEnv("LLM_MODEL", ""),
			MaxTokens:     getEnvAsInt32("LLM_MAX_TOKENS", 2000),
			Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MaxAttempts:   getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
			RetryDelay:    getEnvAsDuration("LLM_RETRY_DELAY", time.Second),
			RateLimit:     getEnvAsFloat64("LLM_RATE_LIMIT", 0),
			RateBurst:     getEnvAsInt("LLM_RATE_BURST", 1),
			AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
			AnthropicKey:  getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			Review:        getEnvAsBool("LLM_REVIEW", true),
			Breaker: BreakerConfig{
				Enabled:          getEnvAsBool("LLM_BREAKER_ENABLED", true),
				MinRequests:      uint32(getEnvAsInt("LLM_BREAKER_MIN_REQUESTS", 5)),
				FailureRatio:     getEnvAsFloat64("LLM_BREAKER_FAILURE_RATIO", 0.5),
				OpenTimeout:      getEnvAsDuration("LLM_BREAKER_OPEN_TIMEOUT", 30*time.Second),
				HalfOpenMaxCalls: uint32(getEnvAsInt("LLM_BREAKER_HALF_OPEN_MAX_CALLS", 1)),
			},
		},
		Validation: ValidationConfig{
			LineItemCheck:        strings.ToLower(getEnv("LINE_ITEM_CHECK", "warn")),
			LargeAmountThreshold: getEnvAsFloat64("LARGE_AMOUNT_THRESHOLD", 1_000_000),
			TemplatesFile:        getEnv("TEMPLATES_FILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required).
		Field("MAX_UPLOAD_MB", c.Server.MaxUploadMB, Positive).
		Field("OCR_MODE", c.OCR.Mode, OneOf("auto", "native", "exec")).
		Field("LLM_PROVIDER", c.LLM.Provider, OneOf("bedrock", "anthropic", "openai", "none")).
		Field("LLM_MAX_TOKENS", int(c.LLM.MaxTokens), Positive).
		Field("LLM_MAX_ATTEMPTS", c.LLM.MaxAttempts, Positive).
		Field("LINE_ITEM_CHECK", c.Validation.LineItemCheck, OneOf("off", "warn", "enforce")).
		Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text"))

	if c.LLM.Provider == "anthropic" && c.LLM.AnthropicKey == "" {
		v.Field("ANTHROPIC_API_KEY", c.LLM.AnthropicKey, Required)
	}
	if c.LLM.Provider == "openai" && c.LLM.OpenAIKey == "" && c.LLM.OpenAIBaseURL == "" {
		v.Field("OPENAI_API_KEY", c.LLM.OpenAIKey, Required)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		v.Field("LLM_TEMPERATURE", c.LLM.Temperature, func(f string, val any) *ValidationError {
			return &ValidationError{Field: f, Value: val, Message: "must be between 0 and 1"}
		})
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// MaxUploadBytes is the request body limit derived from MaxUploadMB.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}
