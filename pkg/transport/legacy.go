package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
)

// Legacy posts plain text and exposes only the response body.
type Legacy struct {
	client HTTPClient
	cfg    config.Provider
	logger log.Logger
}

func (l *Legacy) Kind() Kind { return KindLegacy }

// Preflight fails when the endpoint scheme differs from the origin scheme.
// An empty origin is not checked.
func (l *Legacy) Preflight() error {
	origin := l.cfg.Origin()
	if origin == "" {
		return nil
	}
	o, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("parse origin: %w", err)
	}
	e, err := url.Parse(l.cfg.EndpointURL())
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	if o.Scheme != e.Scheme {
		return fmt.Errorf("%w: endpoint %s, origin %s", ErrProtocolMismatch, e.Scheme, o.Scheme)
	}
	return nil
}

func (l *Legacy) Transmit(ctx context.Context, body []byte) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.EndpointURL(), bytes.NewReader(body))
	if err != nil {
		return Result{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := l.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody := readBody(resp.Body)
	l.logger.Debug("legacy request completed", log.Int("bytes", len(body)))
	return Result{Body: respBody}
}
