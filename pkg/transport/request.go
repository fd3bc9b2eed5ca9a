package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
)

// Request posts JSON and reports the backend's status and body.
type Request struct {
	client HTTPClient
	cfg    config.Provider
	logger log.Logger
}

func (r *Request) Kind() Kind       { return KindRequest }
func (r *Request) Preflight() error { return nil }

func (r *Request) Transmit(ctx context.Context, body []byte) Result {
	var (
		reader  io.Reader = bytes.NewReader(body)
		encoded bool
	)
	if r.cfg.CompressRequests() {
		compressed, err := gzipBody(body)
		if err != nil {
			return Result{Err: fmt.Errorf("compress body: %w", err)}
		}
		reader = bytes.NewReader(compressed)
		encoded = true
	}

	endpoint := r.cfg.EndpointURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return Result{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if encoded {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if !r.cfg.DisableCorrelationHeaders() && SameOrigin(endpoint, r.cfg.Origin()) {
		setCorrelationHeaders(req.Header)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody := readBody(resp.Body)
	r.logger.Debug("request completed",
		log.Int("status", resp.StatusCode),
		log.Int("bytes", len(body)),
	)
	return Result{StatusCode: resp.StatusCode, Body: respBody}
}

func gzipBody(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
