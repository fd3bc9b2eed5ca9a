package telship

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"

	"github.com/bft-labs/telship/internal/app"
	"github.com/bft-labs/telship/internal/domain"
	"github.com/bft-labs/telship/pkg/buffer"
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
	"github.com/bft-labs/telship/pkg/sender"
	"github.com/bft-labs/telship/pkg/storage"
	"github.com/bft-labs/telship/pkg/transport"
)

// Client buffers telemetry and delivers it in the background.
// Use New() to create an instance, then Start() to begin timed delivery.
type Client struct {
	settings  config.Provider
	live      *config.Live
	opts      options
	lifecycle *app.Lifecycle
	sender    *sender.Sender
	buffer    buffer.Buffer
	logger    log.Logger

	mu sync.Mutex
}

// New creates a Client over settings. The client is created in StateStopped;
// payloads tracked before Start are buffered and flushed by the timer.
// Returns an error if the settings are invalid.
func New(settings config.Provider, opts ...Option) (*Client, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings provider is nil", domain.ErrInvalidConfig)
	}
	if err := config.Snapshot(settings).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	// Reloads are stored into a Live provider; wrap anything else.
	var live *config.Live
	if o.configPath != "" {
		if o.configLoader == nil {
			return nil, fmt.Errorf("%w: config file %s has no loader", domain.ErrInvalidConfig, o.configPath)
		}
		if l, ok := settings.(*config.Live); ok {
			live = l
		} else {
			live = config.NewLive(config.Snapshot(settings))
			settings = live
		}
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: settings.HTTPTimeout()}
	}

	buf := newBuffer(settings, o, logger)

	kind := transport.Detect(o.capabilities, settings)
	tr := transport.New(kind, o.httpClient, settings, logger)
	logger.Info("transport selected", log.String("transport", kind.String()))

	senderOpts := []sender.Option{
		sender.WithLogger(logger),
		sender.WithClock(o.clock),
		sender.WithRandom(rand.Float64),
	}
	if o.eventHandler != nil {
		senderOpts = append(senderOpts, sender.WithEventHandler(o.eventHandler))
	}

	return &Client{
		settings:  settings,
		live:      live,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, stateEmitter{handler: o.eventHandler}),
		sender:    sender.New(settings, buf, tr, senderOpts...),
		buffer:    buf,
		logger:    logger,
	}, nil
}

// newBuffer picks the durable buffer when it is enabled and the storage
// works, and the volatile buffer otherwise.
func newBuffer(settings config.Provider, o options, logger log.Logger) buffer.Buffer {
	if !settings.EnableSessionStorageBuffer() {
		return buffer.NewVolatile(settings, logger)
	}
	if o.storage == nil {
		logger.Debug("no storage configured, using in-memory buffer")
		return buffer.NewVolatile(settings, logger)
	}
	if err := storage.Probe(context.Background(), o.storage); err != nil {
		logger.Warn("storage unavailable, using in-memory buffer", log.Err(err))
		return buffer.NewVolatile(settings, logger)
	}

	var durableOpts []buffer.DurableOption
	if o.keyPrefix != "" {
		durableOpts = append(durableOpts, buffer.WithKeyPrefix(o.keyPrefix))
	}
	return buffer.NewDurable(o.storage, settings, logger, durableOpts...)
}

// Start schedules delivery of anything already buffered and, when a config
// file was given, starts watching it. Returns an error if already running or
// if the config file cannot be watched.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.lifecycle.SetCancel(cancel)

	if c.opts.configPath != "" {
		if _, err := os.Stat(c.opts.configPath); err != nil {
			c.lifecycle.Cancel()
			_ = c.lifecycle.TransitionTo(app.StateFailed, "config file unavailable")
			return fmt.Errorf("watch config: %w", err)
		}

		path, live, load := c.opts.configPath, c.live, c.opts.configLoader
		c.lifecycle.Go(func() {
			if err := config.Watch(runCtx, path, live, load, c.logger); err != nil {
				c.logger.Error("config watcher stopped", log.String("path", path), log.Err(err))
			}
		})
	}

	c.sender.Reopen()

	return c.lifecycle.TransitionTo(app.StateRunning, "started")
}

// Track buffers one serialized envelope. It never fails; problems are logged.
func (c *Client) Track(payload string) {
	c.sender.Send(payload)
}

// TrackEnvelope serializes v as JSON and buffers it.
func (c *Client) TrackEnvelope(v any) {
	c.sender.SendEnvelope(v)
}

// Flush sends everything buffered now. With async false it returns once the
// outcome has been applied.
func (c *Client) Flush(async bool) {
	c.sender.TriggerSend(async)
}

// Stop performs a final synchronous flush, waits for in-flight sends and
// stops background workers. Returns ErrNotRunning if not started and
// ErrShutdownTimeout if sends or workers outlive the shutdown timeout.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateUnloading, "Stop() called"); err != nil {
		return err
	}

	c.lifecycle.Cancel()

	// Anything still pending goes out now; a durable buffer keeps
	// unconfirmed items for the next process.
	c.sender.TriggerSend(false)

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.shutdownTimeout)
	defer cancel()
	waitErr := c.sender.Wait(ctx)
	c.sender.Close()

	workerErr := c.lifecycle.WaitWithTimeout(c.opts.shutdownTimeout)

	if waitErr != nil || workerErr != nil {
		c.logger.Warn("shutdown did not complete in time",
			log.Int("pending", c.sender.Pending()),
			log.Duration("timeout", c.opts.shutdownTimeout))
		_ = c.lifecycle.TransitionTo(app.StateFailed, "shutdown timeout")
		return domain.ErrShutdownTimeout
	}

	return c.lifecycle.TransitionTo(app.StateStopped, "stopped")
}

// Status returns the current lifecycle state.
func (c *Client) Status() State {
	return convertState(c.lifecycle.State())
}

// Pending returns the number of payloads waiting to be sent.
func (c *Client) Pending() int {
	return c.sender.Pending()
}

// Transport returns the delivery strategy chosen at New.
func (c *Client) Transport() transport.Kind {
	return c.sender.Transport()
}

// AppID returns the application id last reported by the backend.
func (c *Client) AppID() string {
	return c.sender.AppID()
}

// Durable reports whether payloads are persisted across restarts.
func (c *Client) Durable() bool {
	_, ok := c.buffer.(*buffer.Durable)
	return ok
}

// Settings returns the provider the client reads, which reflects reloads
// when a config file is watched.
func (c *Client) Settings() config.Provider {
	return c.settings
}
