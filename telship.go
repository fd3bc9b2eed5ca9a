// Package telship delivers serialized telemetry envelopes to an ingestion
// endpoint with batching, retry and optional persistence across restarts.
//
// Example usage:
//
//	settings := telship.DefaultSettings()
//	settings.EndpointURL = "https://ingest.example.com/v2/track"
//
//	client, err := telship.New(telship.StaticSettings(settings))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
//	client.Track(`{"name":"PageView"}`)
//
// The full API, including options, lives in pkg/telship.
package telship

import (
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/telship"
)

// Client buffers telemetry and delivers it in the background.
type Client = telship.Client

// Option configures optional behavior of a Client.
type Option = telship.Option

// Settings holds every option the delivery pipeline reads.
type Settings = config.Settings

// New creates a Client in the stopped state.
func New(settings config.Provider, opts ...Option) (*Client, error) {
	return telship.New(settings, opts...)
}

// DefaultSettings returns Settings with the default values.
func DefaultSettings() Settings {
	return config.DefaultSettings()
}

// StaticSettings wraps s in a fixed settings provider.
func StaticSettings(s Settings) config.Provider {
	return config.NewStatic(s)
}

// DefaultEndpointURL is the default ingestion endpoint.
const DefaultEndpointURL = config.DefaultEndpointURL
