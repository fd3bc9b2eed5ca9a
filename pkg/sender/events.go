package sender

import (
	"time"

	"github.com/bft-labs/telship/pkg/transport"
)

// DeliveredEvent reports items the backend accepted.
type DeliveredEvent struct {
	Transport transport.Kind
	Items     int
	Bytes     int
}

// DroppedEvent reports items abandoned after a non-retriable failure.
type DroppedEvent struct {
	Transport  transport.Kind
	Items      int
	StatusCode int
	Message    string
}

// RetryScheduledEvent reports items put back in the buffer for another attempt.
type RetryScheduledEvent struct {
	Transport transport.Kind
	// Items counts what the buffer accepted back; items refused at
	// capacity are not included.
	Items             int
	StatusCode        int
	ConsecutiveErrors int
	RetryAt           time.Time
}

// EventHandler receives delivery outcomes.
// Methods are called after the sender's lock is released, from the goroutine
// that completed the transmission; they should return quickly.
type EventHandler interface {
	OnDelivered(event DeliveredEvent)
	OnDropped(event DroppedEvent)
	OnRetryScheduled(event RetryScheduledEvent)
}

// BaseEventHandler provides no-op defaults. Embed it to handle only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnDelivered(DeliveredEvent)           {}
func (BaseEventHandler) OnDropped(DroppedEvent)               {}
func (BaseEventHandler) OnRetryScheduled(RetryScheduledEvent) {}
