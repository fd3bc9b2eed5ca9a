package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/telship/pkg/config"
)

// FileConfig mirrors Config but uses strings for durations and pointers for
// booleans so that absent keys leave defaults untouched.
type FileConfig struct {
	EndpointURL                string `toml:"endpoint_url" yaml:"endpoint_url"`
	MaxBatchSizeInBytes        int    `toml:"max_batch_size_in_bytes" yaml:"max_batch_size_in_bytes"`
	MaxBatchInterval           string `toml:"max_batch_interval" yaml:"max_batch_interval"`
	EmitLineDelimitedJSON      *bool  `toml:"emit_line_delimited_json" yaml:"emit_line_delimited_json"`
	DisableTelemetry           *bool  `toml:"disable_telemetry" yaml:"disable_telemetry"`
	EnableSessionStorageBuffer *bool  `toml:"enable_session_storage_buffer" yaml:"enable_session_storage_buffer"`
	IsRetryDisabled            *bool  `toml:"is_retry_disabled" yaml:"is_retry_disabled"`
	IsBeaconAPIDisabled        *bool  `toml:"is_beacon_api_disabled" yaml:"is_beacon_api_disabled"`
	DisableCorrelationHeaders  *bool  `toml:"disable_correlation_headers" yaml:"disable_correlation_headers"`
	Origin                     string `toml:"origin" yaml:"origin"`
	MaxBufferSize              int    `toml:"max_buffer_size" yaml:"max_buffer_size"`
	EventsLimitInMem           int    `toml:"events_limit_in_mem" yaml:"events_limit_in_mem"`
	CompressRequests           *bool  `toml:"compress_requests" yaml:"compress_requests"`
	HTTPTimeout                string `toml:"http_timeout" yaml:"http_timeout"`

	Input      string `toml:"input" yaml:"input"`
	Storage    string `toml:"storage" yaml:"storage"`
	StorageDir string `toml:"storage_dir" yaml:"storage_dir"`
	RedisURL   string `toml:"redis_url" yaml:"redis_url"`
	SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path"`
	KeyPrefix  string `toml:"key_prefix" yaml:"key_prefix"`
	LogLevel   string `toml:"log_level" yaml:"log_level"`
}

// LoadFileConfig reads a config file. Files ending in .yaml or .yml are
// decoded as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("decode %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.telship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".telship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)
	st := &cfg.Settings

	s.setString("endpoint", fc.EndpointURL, &st.EndpointURL)
	s.setString("origin", fc.Origin, &st.Origin)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("storage", fc.Storage, &cfg.Storage)
	s.setString("storage-dir", fc.StorageDir, &cfg.StorageDir)
	s.setString("redis-url", fc.RedisURL, &cfg.RedisURL)
	s.setString("sqlite-path", fc.SQLitePath, &cfg.SQLitePath)
	s.setString("key-prefix", fc.KeyPrefix, &cfg.KeyPrefix)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("batch-interval", fc.MaxBatchInterval, &st.MaxBatchInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &st.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("max-batch-bytes", fc.MaxBatchSizeInBytes, &st.MaxBatchSizeInBytes)
	s.setInt("max-buffer-size", fc.MaxBufferSize, &st.MaxBufferSize)
	s.setInt("events-limit-in-mem", fc.EventsLimitInMem, &st.EventsLimitInMem)

	s.setBool("line-delimited", fc.EmitLineDelimitedJSON, &st.EmitLineDelimitedJSON)
	s.setBool("disable-telemetry", fc.DisableTelemetry, &st.DisableTelemetry)
	s.setBool("session-storage", fc.EnableSessionStorageBuffer, &st.EnableSessionStorageBuffer)
	s.setBool("disable-retry", fc.IsRetryDisabled, &st.IsRetryDisabled)
	s.setBool("beacon", fc.IsBeaconAPIDisabled, &st.IsBeaconAPIDisabled)
	s.setBool("disable-correlation", fc.DisableCorrelationHeaders, &st.DisableCorrelationHeaders)
	s.setBool("compress", fc.CompressRequests, &st.CompressRequests)

	return nil
}

// Loader returns a config.LoadFunc that rebuilds settings from base, the
// file at the given path and the environment, still honoring changed flags.
// It is meant for config.Watch.
func Loader(base Config, changed map[string]bool) config.LoadFunc {
	return func(path string) (config.Settings, error) {
		cfg := base
		fc, err := LoadFileConfig(path)
		if err != nil {
			return config.Settings{}, err
		}
		if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
			return config.Settings{}, err
		}
		if err := ApplyEnvConfig(&cfg, changed); err != nil {
			return config.Settings{}, err
		}
		return cfg.Settings, nil
	}
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
