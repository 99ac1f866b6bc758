// Package config provides configuration management for parley.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/cchalm/parley/internal/ai"
)

const (
	defaultDir         = ".parley"
	defaultStoreFile   = "store.bin"
	defaultHistoryFile = "input_history"
)

// Config holds the configuration for parley
type Config struct {
	StorePath   string
	HistoryFile string

	// Credentials that can be imported when the store has none
	Endpoint string
	APIKey   string
	Models   *string // nil when PARLEY_MODELS is unset, which is distinct from set-but-empty

	// Model overrides the first model offered by the selected credentials
	Model string

	TelemetryEnabled bool
	OTLPEndpoint     string
}

// Load loads configuration from environment variables, after reading a .env file in the working directory if there is
// one
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := Config{
		StorePath:    os.Getenv("PARLEY_STORE"),
		HistoryFile:  os.Getenv("PARLEY_HISTORY_FILE"),
		Endpoint:     os.Getenv("PARLEY_ENDPOINT"),
		APIKey:       os.Getenv("PARLEY_API_KEY"),
		Model:        os.Getenv("PARLEY_MODEL"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
	}
	if models, ok := os.LookupEnv("PARLEY_MODELS"); ok {
		config.Models = &models
	}

	if enabled := os.Getenv("TELEMETRY_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.TelemetryEnabled = b
		} else {
			log.Printf("ignoring invalid TELEMETRY_ENABLED value '%s'", enabled)
		}
	}

	if config.StorePath == "" || config.HistoryFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir := filepath.Join(home, defaultDir)
			if config.StorePath == "" {
				config.StorePath = filepath.Join(dir, defaultStoreFile)
			}
			if config.HistoryFile == "" {
				config.HistoryFile = filepath.Join(dir, defaultHistoryFile)
			}
		}
	}

	return config
}

// Validate checks if the required configuration is present
func (c Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("missing store path: set PARLEY_STORE or HOME")
	}
	if c.TelemetryEnabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("missing required environment variable: OTLP_ENDPOINT")
	}
	return nil
}

// CredentialMap returns the credentials found in the environment in the shape accepted by ai.ImportAPIClient. Unset
// variables are left out of the map.
func (c Config) CredentialMap() map[string]string {
	m := map[string]string{}
	if c.Endpoint != "" {
		m[ai.FieldEndpoint] = c.Endpoint
	}
	if c.APIKey != "" {
		m[ai.FieldAPIKey] = c.APIKey
	}
	if c.Models != nil {
		m[ai.FieldModels] = *c.Models
	}
	return m
}

// APIClient imports the credentials found in the environment
func (c Config) APIClient() (ai.APIClient, error) {
	client, err := ai.ImportAPIClient(c.CredentialMap())
	if err != nil {
		return ai.APIClient{}, fmt.Errorf("failed to import credentials from environment: %w", err)
	}
	return client, nil
}
