package transport

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
)

var (
	// ErrProtocolMismatch is returned by the legacy strategy when the endpoint
	// and the origin use different URL schemes.
	ErrProtocolMismatch = errors.New("transport: endpoint protocol does not match origin")

	// ErrBeaconPayloadTooLarge is returned when a beacon body exceeds MaxBeaconBytes.
	ErrBeaconPayloadTooLarge = errors.New("transport: beacon payload too large")
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// HTTPClient abstracts HTTP request execution for testing and custom transports.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Result is the outcome of one transmission, as far as the strategy can observe it.
type Result struct {
	// Queued reports that a beacon was accepted for delivery.
	Queued bool

	// StatusCode is the HTTP status, or 0 when the strategy hides it.
	StatusCode int

	// Body is the response body (possibly truncated).
	Body []byte

	// Err is set when no response was obtained.
	Err error
}

// Transport delivers a batch body to the configured endpoint.
type Transport interface {
	Kind() Kind

	// Preflight reports whether the strategy can be used right now.
	Preflight() error

	// Transmit sends body and reports what it could observe.
	Transmit(ctx context.Context, body []byte) Result
}

// New creates the strategy for kind, or nil for KindNone.
func New(kind Kind, client HTTPClient, cfg config.Provider, logger log.Logger) Transport {
	if client == nil {
		client = http.DefaultClient
	}
	logger = log.OrNoop(logger)

	switch kind {
	case KindBeacon:
		return &Beacon{client: client, cfg: cfg, logger: logger}
	case KindRequest:
		return &Request{client: client, cfg: cfg, logger: logger}
	case KindLegacy:
		return &Legacy{client: client, cfg: cfg, logger: logger}
	default:
		return nil
	}
}

func readBody(r io.Reader) []byte {
	body, _ := io.ReadAll(io.LimitReader(r, maxResponseBytes))
	return body
}
