package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/telship/pkg/config"
)

// Storage backends selectable from the command line.
const (
	StorageMemory = "memory"
	StorageDir    = "dir"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config holds CLI configuration for telship.
type Config struct {
	Settings config.Settings

	// Input is the newline-delimited JSON file to ship; empty reads stdin.
	Input string

	Storage    string
	StorageDir string
	RedisURL   string
	SQLitePath string
	KeyPrefix  string

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Settings:   config.DefaultSettings(),
		Storage:    StorageDir,
		StorageDir: defaultStorageDir(),
		LogLevel:   "info",
	}
}

func defaultStorageDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".telship", "buffer")
	}
	return ""
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}

	switch c.Storage {
	case StorageMemory:
	case StorageDir:
		if c.StorageDir == "" {
			return fmt.Errorf("storage-dir is required for dir storage")
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis-url is required for redis storage")
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite-path is required for sqlite storage")
		}
	default:
		return fmt.Errorf("unknown storage %q (want memory, dir, redis or sqlite)", c.Storage)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
