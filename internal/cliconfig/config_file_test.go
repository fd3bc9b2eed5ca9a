package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name        string
		fileConfig  FileConfig
		changed     map[string]bool
		check       func(t *testing.T, cfg Config)
		expectError bool
	}{
		{
			name: "applies settings",
			fileConfig: FileConfig{
				EndpointURL:           "https://ingest.example.com/v2/track",
				MaxBatchSizeInBytes:   4096,
				MaxBatchInterval:      "5s",
				EmitLineDelimitedJSON: &trueVal,
				IsBeaconAPIDisabled:   &falseVal,
				MaxBufferSize:         50,
				HTTPTimeout:           "3s",
				Storage:               StorageSQLite,
				SQLitePath:            "/var/lib/telship/buf.db",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, cfg Config) {
				s := cfg.Settings
				if s.EndpointURL != "https://ingest.example.com/v2/track" {
					t.Errorf("EndpointURL = %v", s.EndpointURL)
				}
				if s.MaxBatchSizeInBytes != 4096 {
					t.Errorf("MaxBatchSizeInBytes = %v, want 4096", s.MaxBatchSizeInBytes)
				}
				if s.MaxBatchInterval != 5*time.Second {
					t.Errorf("MaxBatchInterval = %v, want 5s", s.MaxBatchInterval)
				}
				if !s.EmitLineDelimitedJSON {
					t.Error("EmitLineDelimitedJSON = false, want true")
				}
				if s.IsBeaconAPIDisabled {
					t.Error("IsBeaconAPIDisabled = true, want false")
				}
				if s.MaxBufferSize != 50 {
					t.Errorf("MaxBufferSize = %v, want 50", s.MaxBufferSize)
				}
				if s.HTTPTimeout != 3*time.Second {
					t.Errorf("HTTPTimeout = %v, want 3s", s.HTTPTimeout)
				}
				if cfg.Storage != StorageSQLite || cfg.SQLitePath != "/var/lib/telship/buf.db" {
					t.Errorf("storage = %v %v", cfg.Storage, cfg.SQLitePath)
				}
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				EndpointURL:     "https://file.example.com",
				IsRetryDisabled: &trueVal,
			},
			changed: map[string]bool{"endpoint": true, "disable-retry": true},
			check: func(t *testing.T, cfg Config) {
				if cfg.Settings.EndpointURL != "https://flag.example.com" {
					t.Errorf("EndpointURL = %v, want flag value", cfg.Settings.EndpointURL)
				}
				if cfg.Settings.IsRetryDisabled {
					t.Error("IsRetryDisabled overwritten despite changed flag")
				}
			},
		},
		{
			name:        "invalid duration",
			fileConfig:  FileConfig{MaxBatchInterval: "fortnight"},
			changed:     map[string]bool{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Settings.EndpointURL = "https://flag.example.com"
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.expectError {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "config.toml")
	tomlBody := `
endpoint_url = "https://toml.example.com/track"
max_batch_interval = "2s"
compress_requests = true
storage = "redis"
redis_url = "redis://localhost:6379/1"
`
	if err := os.WriteFile(tomlPath, []byte(tomlBody), 0o600); err != nil {
		t.Fatal(err)
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	yamlBody := `
endpoint_url: https://yaml.example.com/track
max_batch_interval: 2s
compress_requests: true
storage: redis
redis_url: redis://localhost:6379/1
`
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{tomlPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			fc, err := LoadFileConfig(path)
			if err != nil {
				t.Fatalf("LoadFileConfig() error = %v", err)
			}
			if fc.MaxBatchInterval != "2s" {
				t.Errorf("MaxBatchInterval = %v, want 2s", fc.MaxBatchInterval)
			}
			if fc.CompressRequests == nil || !*fc.CompressRequests {
				t.Error("CompressRequests not decoded")
			}
			if fc.Storage != StorageRedis || fc.RedisURL != "redis://localhost:6379/1" {
				t.Errorf("storage = %v %v", fc.Storage, fc.RedisURL)
			}
			if fc.EmitLineDelimitedJSON != nil {
				t.Error("absent key decoded as set")
			}
		})
	}

	if _, err := LoadFileConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadFileConfig() expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("endpoint_url = ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(bad); err == nil {
		t.Error("LoadFileConfig() expected error for malformed file")
	}
}

func TestLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`disable_telemetry = true
endpoint_url = "https://file.example.com"
`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELSHIP_MAX_BUFFER_SIZE", "7")

	base := DefaultConfig()
	base.Settings.EndpointURL = "https://flag.example.com"
	load := Loader(base, map[string]bool{"endpoint": true})

	s, err := load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if !s.DisableTelemetry {
		t.Error("DisableTelemetry = false, want true from file")
	}
	if s.EndpointURL != "https://flag.example.com" {
		t.Errorf("EndpointURL = %v, want flag value", s.EndpointURL)
	}
	if s.MaxBufferSize != 7 {
		t.Errorf("MaxBufferSize = %v, want 7 from env", s.MaxBufferSize)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	p := DefaultConfigPath()
	if p != "" && filepath.Base(p) != "config.toml" {
		t.Errorf("DefaultConfigPath() = %v", p)
	}
}
