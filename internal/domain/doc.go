// Package domain holds the sentinel errors shared by the client facade and
// the lifecycle state machine. It has no dependencies.
package domain
