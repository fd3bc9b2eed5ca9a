package telship

import (
	"github.com/bft-labs/telship/internal/app"
	"github.com/bft-labs/telship/pkg/sender"
)

// State is the lifecycle state of a Client.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateUnloading
	StateFailed
)

func (s State) String() string {
	return app.State(s).String()
}

func convertState(s app.State) State {
	switch s {
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateUnloading:
		return StateUnloading
	case app.StateFailed:
		return StateFailed
	default:
		return StateStopped
	}
}

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// Delivery events re-exported from the sender.
type (
	DeliveredEvent      = sender.DeliveredEvent
	DroppedEvent        = sender.DroppedEvent
	RetryScheduledEvent = sender.RetryScheduledEvent
)

// EventHandler receives lifecycle and delivery notifications.
// Embed BaseEventHandler to implement only the methods you need.
type EventHandler interface {
	sender.EventHandler
	OnStateChange(event StateChangeEvent)
}

// BaseEventHandler provides no-op implementations of every EventHandler method.
type BaseEventHandler struct {
	sender.BaseEventHandler
}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}

// stateEmitter adapts EventHandler to the lifecycle's emitter.
type stateEmitter struct {
	handler EventHandler
}

func (e stateEmitter) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}
