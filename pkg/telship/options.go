package telship

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/bft-labs/telship/internal/app"
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
	"github.com/bft-labs/telship/pkg/storage"
	"github.com/bft-labs/telship/pkg/transport"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = transport.HTTPClient

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient      HTTPClient
	logger          log.Logger
	eventHandler    EventHandler
	storage         storage.Storage
	keyPrefix       string
	capabilities    transport.Capabilities
	clock           clock.Clock
	configPath      string
	configLoader    config.LoadFunc
	shutdownTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:          log.NoopLogger{},
		capabilities:    transport.DefaultCapabilities(),
		clock:           clock.New(),
		shutdownTimeout: app.ShutdownTimeout,
	}
}

// WithHTTPClient sets the client used by every transport strategy.
// If not provided, an *http.Client with the configured HTTPTimeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger for internal diagnostics.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithEventHandler sets a handler for lifecycle and delivery events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithStorage enables the durable buffer on s. It is used only when
// EnableSessionStorageBuffer is set and s passes storage.Probe.
func WithStorage(s storage.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithKeyPrefix sets the prefix of the durable buffer's storage keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithCapabilities overrides the delivery primitives the host offers.
func WithCapabilities(caps transport.Capabilities) Option {
	return func(o *options) {
		o.capabilities = caps
	}
}

// WithClock sets the clock used for flush timers and retry deadlines.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithConfigFile reloads settings from path with load while the client runs.
func WithConfigFile(path string, load config.LoadFunc) Option {
	return func(o *options) {
		o.configPath = path
		o.configLoader = load
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight sends.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}
