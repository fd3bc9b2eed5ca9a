package config

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultEndpointURL is the default ingestion endpoint.
const DefaultEndpointURL = "https://dc.services.visualstudio.com/v2/track"

// Settings is a plain snapshot of every option the delivery pipeline reads.
type Settings struct {
	// EndpointURL is where batches are posted.
	EndpointURL string

	// MaxBatchSizeInBytes bounds the size of a single batch body. A send that
	// would grow the pending batch past it flushes first.
	MaxBatchSizeInBytes int

	// MaxBatchInterval is the flush timer delay.
	MaxBatchInterval time.Duration

	// EmitLineDelimitedJSON selects newline-delimited batches instead of a JSON array.
	EmitLineDelimitedJSON bool

	// DisableTelemetry turns the sender into a sink that retains nothing.
	DisableTelemetry bool

	// EnableSessionStorageBuffer selects the durable buffer when storage is available.
	EnableSessionStorageBuffer bool

	// IsRetryDisabled turns retriable failures into hard failures.
	IsRetryDisabled bool

	// IsBeaconAPIDisabled prevents the fire-and-forget strategy from being selected.
	IsBeaconAPIDisabled bool

	// DisableCorrelationHeaders suppresses x-ms-request-* headers.
	DisableCorrelationHeaders bool

	// Origin is the scheme://host the client runs under. Correlation headers
	// are only attached to same-origin endpoints and the legacy strategy
	// refuses endpoints with a different scheme.
	Origin string

	// MaxBufferSize caps the durable buffer.
	MaxBufferSize int

	// EventsLimitInMem caps the volatile buffer.
	EventsLimitInMem int

	// CompressRequests gzips request bodies of the request/response strategy.
	CompressRequests bool

	// HTTPTimeout bounds a single transmission.
	HTTPTimeout time.Duration
}

// DefaultSettings returns Settings with the default values.
func DefaultSettings() Settings {
	return Settings{
		EndpointURL:                DefaultEndpointURL,
		MaxBatchSizeInBytes:        1000000,
		MaxBatchInterval:           15 * time.Second,
		EnableSessionStorageBuffer: true,
		IsBeaconAPIDisabled:        true,
		MaxBufferSize:              2000,
		EventsLimitInMem:           10000,
		HTTPTimeout:                15 * time.Second,
	}
}

// Validate checks the settings for errors.
func (s Settings) Validate() error {
	if s.EndpointURL == "" {
		return fmt.Errorf("endpoint url is required")
	}
	u, err := url.Parse(s.EndpointURL)
	if err != nil {
		return fmt.Errorf("parse endpoint url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint url must be http or https, got %q", u.Scheme)
	}
	if s.MaxBatchSizeInBytes <= 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if s.MaxBatchInterval < 0 {
		return fmt.Errorf("max batch interval must not be negative")
	}
	if s.MaxBufferSize <= 0 {
		return fmt.Errorf("max buffer size must be positive")
	}
	if s.EventsLimitInMem <= 0 {
		return fmt.Errorf("events limit in memory must be positive")
	}
	if s.Origin != "" {
		if _, err := url.Parse(s.Origin); err != nil {
			return fmt.Errorf("parse origin: %w", err)
		}
	}
	return nil
}
