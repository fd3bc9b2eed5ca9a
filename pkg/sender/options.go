package sender

import (
	"math/rand"

	"github.com/benbjohnson/clock"

	"github.com/bft-labs/telship/pkg/log"
)

// Option configures optional behavior of a Sender.
type Option func(*options)

type options struct {
	logger  log.Logger
	clock   clock.Clock
	random  func() float64
	handler EventHandler
}

func defaultOptions() options {
	return options{
		logger:  log.NoopLogger{},
		clock:   clock.New(),
		random:  rand.Float64,
		handler: BaseEventHandler{},
	}
}

// WithLogger sets the logger for internal diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithClock sets the clock used for the flush timer and retry deadlines.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRandom sets the source of backoff jitter. f must return values in [0, 1).
func WithRandom(f func() float64) Option {
	return func(o *options) {
		if f != nil {
			o.random = f
		}
	}
}

// WithEventHandler sets a handler for delivery events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		if handler != nil {
			o.handler = handler
		}
	}
}
