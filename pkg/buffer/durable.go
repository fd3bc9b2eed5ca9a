package buffer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
	"github.com/bft-labs/telship/pkg/storage"
)

// DefaultKeyPrefix prefixes both storage slots.
const DefaultKeyPrefix = "telship_"

const storageTimeout = 5 * time.Second

// Durable is a Buffer persisted to a Storage after every mutation.
//
// Pending payloads live under <prefix>buffer, payloads handed to the
// transport but not yet resolved under <prefix>sent_buffer. Both partitions
// are bounded by MaxBufferSize.
type Durable struct {
	cfg    config.Provider
	logger log.Logger
	store  storage.Storage

	pendingKey string
	sentKey    string

	pending []string
	sent    []string
	full    bool
}

var _ Buffer = (*Durable)(nil)

// DurableOption configures a Durable buffer.
type DurableOption func(*Durable)

// WithKeyPrefix sets the prefix of both storage slots.
func WithKeyPrefix(prefix string) DurableOption {
	return func(d *Durable) {
		d.pendingKey = prefix + "buffer"
		d.sentKey = prefix + "sent_buffer"
	}
}

// NewDurable restores a buffer from store. Payloads left in the sent slot by
// a previous process are moved back to pending, the result is truncated to
// MaxBufferSize, and both slots are rewritten.
func NewDurable(store storage.Storage, cfg config.Provider, logger log.Logger, opts ...DurableOption) *Durable {
	d := &Durable{
		cfg:    cfg,
		logger: log.OrNoop(logger),
		store:  store,
	}
	WithKeyPrefix(DefaultKeyPrefix)(d)
	for _, opt := range opts {
		opt(d)
	}

	restored := append(d.load(d.pendingKey), d.load(d.sentKey)...)
	if limit := cfg.MaxBufferSize(); len(restored) > limit {
		restored = restored[:limit]
	}
	d.pending = restored

	d.save(d.sentKey, nil)
	d.save(d.pendingKey, d.pending)
	return d
}

func (d *Durable) Enqueue(payload string) {
	limit := d.cfg.MaxBufferSize()
	if len(d.pending) >= limit {
		if !d.full {
			d.logger.Warn("maximum buffer size reached",
				log.Code(log.BufferFull),
				log.Int("limit", limit),
			)
			d.full = true
		}
		return
	}
	d.pending = append(d.pending, payload)
	d.save(d.pendingKey, d.pending)
}

func (d *Durable) Count() int { return len(d.pending) }

func (d *Durable) Items() []string {
	return append([]string(nil), d.pending...)
}

// SentItems returns a copy of the payloads handed to the transport and not
// yet resolved.
func (d *Durable) SentItems() []string {
	return append([]string(nil), d.sent...)
}

func (d *Durable) Clear() {
	d.pending = nil
	d.sent = nil
	d.full = false
	d.save(d.pendingKey, nil)
	d.save(d.sentKey, nil)
}

func (d *Durable) BatchPayloads(payloads []string) []byte {
	return BatchPayloads(payloads, d.cfg.EmitLineDelimitedJSON())
}

// MarkAsSent moves payloads from pending to sent.
func (d *Durable) MarkAsSent(payloads []string) {
	d.pending = removeEach(d.pending, payloads)
	d.save(d.pendingKey, d.pending)

	d.sent = append(d.sent, payloads...)
	if limit := d.cfg.MaxBufferSize(); len(d.sent) > limit {
		d.logger.Error("sent buffer reached its maximum size",
			log.Code(log.SentBufferFull),
			log.Int("limit", limit),
			log.Int("dropped", len(d.sent)-limit),
		)
		d.sent = d.sent[:limit]
	}
	d.save(d.sentKey, d.sent)
}

// ClearSent removes payloads from the sent partition.
func (d *Durable) ClearSent(payloads []string) {
	d.sent = removeEach(d.sent, payloads)
	d.save(d.sentKey, d.sent)
}

// load reads a slot. Missing slots are silently empty; unreadable or
// corrupt ones are reported and treated as empty.
func (d *Durable) load(key string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	data, err := d.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		d.logger.Error("failed to read buffer from storage",
			log.Code(log.FailedToRestoreStorageBuffer),
			log.String("key", key),
			log.Err(err),
		)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		d.logger.Error("failed to restore buffer from storage",
			log.Code(log.FailedToRestoreStorageBuffer),
			log.String("key", key),
			log.Err(err),
		)
		return nil
	}
	return items
}

// save writes a slot. On failure the slot is reset to an empty array and the
// in-memory state is left untouched.
func (d *Durable) save(key string, items []string) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		err = d.store.Set(ctx, key, data)
		cancel()
		if err == nil {
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	_ = d.store.Set(ctx, key, []byte("[]"))

	d.logger.Warn("failed to write buffer to storage, buffer cleared",
		log.Code(log.FailedToSetStorageBuffer),
		log.String("key", key),
		log.Err(err),
	)
}
