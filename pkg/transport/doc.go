// Package transport chooses and implements the wire strategy used to deliver
// telemetry batches.
//
// One strategy is selected per sender, at construction, from the host's
// [Capabilities]:
//
//   - Beacon: fire and forget POST. Only whether the request was queued is
//     known; the response is ignored.
//   - Request: full HTTP request with JSON body, optional gzip, correlation
//     headers for same-origin endpoints, and the backend's status and body
//     reported back.
//   - Legacy: plain-text POST that exposes the response body but not its
//     status, and refuses to cross URL schemes.
//
// When no strategy is available [New] returns nil and the sender refuses to
// accept telemetry.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package transport
