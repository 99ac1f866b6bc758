package cmd

import (
	appconfig "github.com/cchalm/parley/internal/config"
)

var config = appconfig.Config{}

// Command line flags. Those that mirror a config value override it once the config has been loaded.
var flags struct {
	// Common flags
	StorePath string

	// Chat flags
	ChatID      int64
	ClientIndex int
	Model       string

	// Client flags
	Endpoint string
	APIKey   string
	Models   []string
}
