// Package config holds settings read from the environment, optionally
// seeded from a .env file. Command-line flags override them.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvLogLevel  = "GABCLY_LOG_LEVEL"
	EnvLogFormat = "GABCLY_LOG_FORMAT"
	EnvCatalog   = "GABCLY_CATALOG"
	EnvWorkers   = "GABCLY_WORKERS"
)

// Config holds the application configuration
type Config struct {
	LogLevel  string // debug, info, warn or error
	LogFormat string // text or json
	Catalog   string // path of the catalog database
	Workers   int    // concurrent files for check
}

// LoadEnvFile loads variables from the given .env files, or ./.env when
// none are named. Missing files are ignored; variables already set in the
// environment win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads the configuration from the environment, falling back to
// defaults for unset or invalid values.
func Load() *Config {
	return &Config{
		LogLevel:  getEnv(EnvLogLevel, "info"),
		LogFormat: getEnv(EnvLogFormat, "text"),
		Catalog:   getEnv(EnvCatalog, "gabcly.db"),
		Workers:   getEnvInt(EnvWorkers, 4),
	}
}

// Vars returns the configuration as interpolation variables for flag
// defaults.
func (c *Config) Vars() map[string]string {
	return map[string]string{
		"log_level":  c.LogLevel,
		"log_format": c.LogFormat,
		"catalog":    c.Catalog,
		"workers":    strconv.Itoa(c.Workers),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to defaultValue when the variable is unset or not a
// positive integer.
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 1 {
		return defaultValue
	}
	return n
}
