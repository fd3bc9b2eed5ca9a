// Package telship provides an embeddable client that reliably delivers
// serialized telemetry envelopes to an ingestion endpoint.
//
// # Basic Usage
//
//	settings := config.DefaultSettings()
//	settings.EndpointURL = "https://ingest.example.com/v2/track"
//
//	client, err := telship.New(config.NewStatic(settings))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	client.Track(`{"name":"PageView","time":"2024-01-01T00:00:00Z"}`)
//
//	// ... on shutdown, flush what is left ...
//	if err := client.Stop(); err != nil {
//	    log.Printf("shutdown: %v", err)
//	}
//
// Track never fails: problems end up in the logger passed with [WithLogger]
// and in the optional [EventHandler].
//
// # Durability
//
// Pass a [storage.Storage] with [WithStorage] and keep
// EnableSessionStorageBuffer on to persist pending and in-flight payloads.
// A client created over the same storage after a crash resends whatever the
// previous process had not confirmed.
//
// # Live Configuration
//
// [WithConfigFile] reloads settings from a file whenever it changes, without
// restarting the client. Batching, retry and transport options take effect on
// the next send; the transport strategy and buffer kind are fixed at New.
//
// # Lifecycle States
//
// A client is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateUnloading] or [StateFailed]. Stop moves through StateUnloading while
// it performs the final synchronous flush.
//
// # Version
//
// Current version: 1.0.0
package telship
