package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (TELSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	st := &cfg.Settings

	s.setString("endpoint", os.Getenv("TELSHIP_ENDPOINT_URL"), &st.EndpointURL)
	s.setString("origin", os.Getenv("TELSHIP_ORIGIN"), &st.Origin)
	s.setString("input", os.Getenv("TELSHIP_INPUT"), &cfg.Input)
	s.setString("storage", os.Getenv("TELSHIP_STORAGE"), &cfg.Storage)
	s.setString("storage-dir", os.Getenv("TELSHIP_STORAGE_DIR"), &cfg.StorageDir)
	s.setString("redis-url", os.Getenv("TELSHIP_REDIS_URL"), &cfg.RedisURL)
	s.setString("sqlite-path", os.Getenv("TELSHIP_SQLITE_PATH"), &cfg.SQLitePath)
	s.setString("key-prefix", os.Getenv("TELSHIP_KEY_PREFIX"), &cfg.KeyPrefix)
	s.setString("log-level", os.Getenv("TELSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("batch-interval", os.Getenv("TELSHIP_MAX_BATCH_INTERVAL"), &st.MaxBatchInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("TELSHIP_HTTP_TIMEOUT"), &st.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-batch-bytes", os.Getenv("TELSHIP_MAX_BATCH_SIZE_IN_BYTES"), &st.MaxBatchSizeInBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("max-buffer-size", os.Getenv("TELSHIP_MAX_BUFFER_SIZE"), &st.MaxBufferSize); err != nil {
		return err
	}
	if err := s.setIntFromString("events-limit-in-mem", os.Getenv("TELSHIP_EVENTS_LIMIT_IN_MEM"), &st.EventsLimitInMem); err != nil {
		return err
	}

	s.setBoolFromString("line-delimited", os.Getenv("TELSHIP_EMIT_LINE_DELIMITED_JSON"), &st.EmitLineDelimitedJSON)
	s.setBoolFromString("disable-telemetry", os.Getenv("TELSHIP_DISABLE_TELEMETRY"), &st.DisableTelemetry)
	s.setBoolFromString("session-storage", os.Getenv("TELSHIP_ENABLE_SESSION_STORAGE_BUFFER"), &st.EnableSessionStorageBuffer)
	s.setBoolFromString("disable-retry", os.Getenv("TELSHIP_IS_RETRY_DISABLED"), &st.IsRetryDisabled)
	s.setBoolFromString("beacon", os.Getenv("TELSHIP_IS_BEACON_API_DISABLED"), &st.IsBeaconAPIDisabled)
	s.setBoolFromString("disable-correlation", os.Getenv("TELSHIP_DISABLE_CORRELATION_HEADERS"), &st.DisableCorrelationHeaders)
	s.setBoolFromString("compress", os.Getenv("TELSHIP_COMPRESS_REQUESTS"), &st.CompressRequests)

	return nil
}
