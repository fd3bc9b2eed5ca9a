package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
)

// MaxBeaconBytes is the largest body a beacon accepts.
const MaxBeaconBytes = 64 * 1024

// Beacon posts a body without custom headers and ignores the response.
type Beacon struct {
	client HTTPClient
	cfg    config.Provider
	logger log.Logger
}

func (b *Beacon) Kind() Kind       { return KindBeacon }
func (b *Beacon) Preflight() error { return nil }

// Transmit reports Queued once any response arrives.
func (b *Beacon) Transmit(ctx context.Context, body []byte) Result {
	if len(body) > MaxBeaconBytes {
		return Result{Err: fmt.Errorf("%w: %d bytes", ErrBeaconPayloadTooLarge, len(body))}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.EndpointURL(), bytes.NewReader(body))
	if err != nil {
		return Result{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("send beacon: %w", err)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	b.logger.Debug("beacon queued", log.Int("bytes", len(body)))
	return Result{Queued: true}
}
