// Package config is responsible for initializing the application's
// configuration. It uses the Viper library to read settings from a config
// file, environment variables, and command-line flags, providing a unified
// configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup so configuration is loaded before any command
// runs.
func InitConfig() {
	// --- Set Search Paths ---
	viper.SetConfigName("config")
	viper.AddConfigPath(".")                  // Current working directory
	viper.AddConfigPath("/etc/gsc-indexer/")  // System-wide configuration
	viper.AddConfigPath("$HOME/.gsc-indexer") // User-specific configuration

	// --- Set Defaults ---
	// Concurrency 50 matches the burst the inspection API tolerates per
	// credential; the quota pacer keeps the steady-state rate below it.
	viper.SetDefault("indexer.concurrency", 50)
	viper.SetDefault("indexer.cache_dir", "data/cache")
	viper.SetDefault("indexer.freshness_window", "336h") // 14 days
	viper.SetDefault("indexer.retry_on_throttle", true)
	viper.SetDefault("http.request_timeout", "30s")
	viper.SetDefault("quota.requests_per_second", 5.0)
	viper.SetDefault("quota.burst", 10)
	viper.SetDefault("credentials.path", "")
	viper.SetDefault("credentials.client_email", "")
	viper.SetDefault("credentials.private_key", "")
	viper.SetDefault("logging.development", false)

	// --- Environment Variables ---
	viper.SetEnvPrefix("INDEXER") // e.g., INDEXER_CREDENTIALS_PATH=/keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// --- Read Config File ---
	// A missing config file is fine; defaults and environment variables
	// carry the run. Parse errors surface when a command reads the value.
	_ = viper.ReadInConfig()
}
