// Package sender implements the delivery state machine that moves buffered
// telemetry payloads to the ingestion endpoint.
//
// # Flow
//
// [Sender.Send] appends a serialized payload to the buffer and arms a flush
// timer. A batch is transmitted when the timer fires, when the next payload
// would push the batch past MaxBatchSizeInBytes, or when the host calls
// [Sender.TriggerSend] (typically on shutdown, synchronously).
//
// Right before a batch is handed to the transport it is marked as sent in the
// buffer. The outcome is then reconciled:
//
//   - success: the batch is forgotten and the error streak resets
//   - retriable failure (408, 429, 500, 503): items go back to the end of
//     the buffer and the next flush waits for a randomized exponential backoff
//   - partial success (206): the backend's per-item errors split the batch
//     into delivered, retriable and dropped items
//   - anything else: the batch is dropped with a warning
//
// No public method returns delivery errors. Problems are reported through
// the [log.Logger] (each entry carries a "code" field) and through the
// optional [EventHandler].
//
// # Concurrency
//
// All methods are safe for concurrent use. State is guarded by one mutex;
// network I/O happens outside it, and results are applied back under it.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package sender
