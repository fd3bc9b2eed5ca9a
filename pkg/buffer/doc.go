// Package buffer holds serialized telemetry payloads until the sender hands
// them to a transport.
//
// Two implementations satisfy [Buffer]:
//
//   - [Volatile] keeps payloads in memory. Handing a batch to the network
//     clears it, so a crash loses whatever was in flight.
//   - [Durable] mirrors two partitions, pending and sent, into a
//     [storage.Storage] on every mutation. Payloads that were sent but never
//     confirmed are restored into pending when the next process starts.
//
// Buffers are not safe for concurrent use; the sender serializes access.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package buffer
