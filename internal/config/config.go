// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the service reads from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string `envconfig:"PORT" default:"8080"`

	// GeminiAPIKey authenticates against the extraction backend. It is the
	// only credential the service needs.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`

	// ExtractionModel is the vision model used to read statements.
	ExtractionModel string `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash"`

	// MaxUploadBytes caps the total size of one multipart upload.
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"true"`
}

// Load reads the .env file if present, then populates Config from the
// environment. Missing required values are reported as an error rather
// than a panic so main can log and exit.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	return &cfg, nil
}
