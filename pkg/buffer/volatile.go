package buffer

import (
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
)

// Volatile is an in-memory Buffer bounded by EventsLimitInMem.
type Volatile struct {
	cfg    config.Provider
	logger log.Logger

	items []string
	full  bool
}

var _ Buffer = (*Volatile)(nil)

// NewVolatile creates an empty in-memory buffer.
func NewVolatile(cfg config.Provider, logger log.Logger) *Volatile {
	return &Volatile{cfg: cfg, logger: log.OrNoop(logger)}
}

func (v *Volatile) Enqueue(payload string) {
	limit := v.cfg.EventsLimitInMem()
	if len(v.items) >= limit {
		if !v.full {
			v.logger.Warn("maximum buffer size reached",
				log.Code(log.BufferFull),
				log.Int("limit", limit),
			)
			v.full = true
		}
		return
	}
	v.items = append(v.items, payload)
}

func (v *Volatile) Count() int { return len(v.items) }

func (v *Volatile) Items() []string {
	return append([]string(nil), v.items...)
}

func (v *Volatile) Clear() {
	v.items = nil
	v.full = false
}

func (v *Volatile) BatchPayloads(payloads []string) []byte {
	return BatchPayloads(payloads, v.cfg.EmitLineDelimitedJSON())
}

// MarkAsSent clears the buffer; nothing is kept for in-flight payloads.
func (v *Volatile) MarkAsSent(payloads []string) {
	v.Clear()
}

// ClearSent is a no-op.
func (v *Volatile) ClearSent(payloads []string) {}
