package log

import "time"

// Logger provides structured logging capabilities.
// Implementations can wrap zerolog, zap, logrus, or any other logging library.
type Logger interface {
	// Debug logs a debug-level message with fields.
	Debug(msg string, fields ...Field)

	// Info logs an info-level message with fields.
	Info(msg string, fields ...Field)

	// Warn logs a warning-level message with fields.
	Warn(msg string, fields ...Field)

	// Error logs an error-level message with fields.
	// Critical internal diagnostics are reported at this level.
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// MessageID identifies an internal diagnostic independent of its wording.
type MessageID string

// Message ids emitted by the delivery pipeline.
const (
	BufferFull                    MessageID = "buffer_full"
	SentBufferFull                MessageID = "sent_buffer_full"
	FailedToSetStorageBuffer      MessageID = "failed_to_set_storage_buffer"
	FailedToRestoreStorageBuffer  MessageID = "failed_to_restore_storage_buffer"
	CannotSendEmptyTelemetry      MessageID = "cannot_send_empty_telemetry"
	SenderNotInitialized          MessageID = "sender_not_initialized"
	FailedAddingTelemetryToBuffer MessageID = "failed_adding_telemetry_to_buffer"
	TransmissionFailed            MessageID = "transmission_failed"
	TransmissionRetry             MessageID = "transmission_retry"
	TransmissionDelivered         MessageID = "transmission_delivered"
	InvalidBackendResponse        MessageID = "invalid_backend_response"
	ProtocolMismatch              MessageID = "protocol_mismatch"
	ConfigReloadFailed            MessageID = "config_reload_failed"
)

// Code creates the field carrying a message id. Key is "code".
func Code(id MessageID) Field {
	return Field{Key: "code", Value: string(id)}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time creates a timestamp field.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field with key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field with any value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
