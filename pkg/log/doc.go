// Package log provides the logging port used by every telship component.
//
// Delivery never surfaces errors to the host application, so every failure
// path in the buffer, transport and sender packages ends in a call on a
// [Logger]. Each of those calls carries a [Code] field naming a stable
// [MessageID], which lets hosts filter or count internal diagnostics without
// parsing message text.
//
// # Usage
//
// Use the zerolog adapter:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Or discard everything (the library default):
//
//	logger := log.NewNoopLogger()
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with an existing logging stack:
//
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
