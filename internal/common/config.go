package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Backend     BackendConfig
	Credentials CredentialsConfig
	Log         LogConfig
}

// BackendConfig holds settings for the CartCompass REST backend
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	CompareTimeout time.Duration
	ReceiptLimit   int
}

// CredentialsConfig holds settings for the persisted cookie store
type CredentialsConfig struct {
	// Path of the SQLite database backing the cookie jar. Empty means
	// in-memory only (nothing survives the process).
	Path string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from a .env file (if present) and the
// environment. Environment variables win over .env entries.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_URL", "http://localhost:8000"),
			RequestTimeout: getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
			UploadTimeout:  getEnvAsDuration("UPLOAD_TIMEOUT", 90*time.Second),
			CompareTimeout: getEnvAsDuration("COMPARE_TIMEOUT", 60*time.Second),
			ReceiptLimit:   getEnvAsInt("RECEIPT_LIMIT", 10),
		},
		Credentials: CredentialsConfig{
			Path: getEnv("CREDENTIALS_DB", defaultCredentialsPath()),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "cartcompass.db"
	}
	return dir + string(os.PathSeparator) + "cartcompass" + string(os.PathSeparator) + "credentials.db"
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "BACKEND_URL is required", ErrValidation)
	}
	if c.Backend.RequestTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "HTTP_TIMEOUT must be positive", ErrValidation)
	}
	if c.Backend.ReceiptLimit <= 0 {
		return NewAppError("CONFIG_ERROR", "RECEIPT_LIMIT must be positive", ErrValidation)
	}
	return nil
}
