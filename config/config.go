// Package config reads the catalog's runtime settings from environment
// variables, falling back to defaults. Command line flags override them.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"book-catalog/library"
)

const (
	defaultFile     = "data.json"
	defaultLogLevel = "info"
	defaultIDPolicy = "next"
)

// Config holds the settings shared by the catalog commands.
type Config struct {
	File     string
	LogLevel string
	IDPolicy string
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		File:     readEnv("CATALOG_FILE", defaultFile),
		LogLevel: readEnv("CATALOG_LOG_LEVEL", defaultLogLevel),
		IDPolicy: readEnv("CATALOG_ID_POLICY", defaultIDPolicy),
	}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Policy parses IDPolicy.
func (c *Config) Policy() (library.IDPolicy, error) {
	return library.ParseIDPolicy(c.IDPolicy)
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
