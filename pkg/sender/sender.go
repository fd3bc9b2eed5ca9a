package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/bft-labs/telship/pkg/buffer"
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
	"github.com/bft-labs/telship/pkg/transport"
)

// Sender batches buffered payloads and delivers them through one transport.
type Sender struct {
	cfg       config.Provider
	buffer    buffer.Buffer
	transport transport.Transport
	logger    log.Logger
	clock     clock.Clock
	random    func() float64
	handler   EventHandler

	mu                sync.Mutex
	timer             *clock.Timer
	timerSeq          uint64
	retryAt           time.Time
	lastSend          time.Time
	consecutiveErrors int
	appID             string
	closed            bool

	// Payload bytes and count of the pending partition, so the size
	// threshold does not rebuild the batch body on every Send.
	pendingBytes int
	pendingCount int

	inflight int
	idle     chan struct{}
}

// delivery is a batch handed to the transport and awaiting its result.
type delivery struct {
	transport transport.Transport
	items     []string
	body      []byte
}

// New creates a Sender over buf. tr may be nil when no transport is
// available; Send then logs and drops every payload.
func New(cfg config.Provider, buf buffer.Buffer, tr transport.Transport, opts ...Option) *Sender {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Sender{
		cfg:       cfg,
		buffer:    buf,
		transport: tr,
		logger:    o.logger,
		clock:     o.clock,
		random:    o.random,
		handler:   o.handler,
	}
}

// Send buffers a serialized payload for delivery.
func (s *Sender) Send(payload string) {
	if s.cfg.DisableTelemetry() {
		return
	}
	if payload == "" {
		s.logger.Error("cannot send empty telemetry", log.Code(log.CannotSendEmptyTelemetry))
		return
	}
	if s.transport == nil {
		s.logger.Error("sender was not initialized", log.Code(log.SenderNotInitialized))
		return
	}

	s.mu.Lock()
	var d *delivery
	if s.buffer.Count() > 0 && s.batchSizeLocked()+len(payload) > s.batchLimit() {
		d = s.triggerSendLocked()
	}
	s.enqueueLocked(payload)
	s.armTimerLocked()
	s.mu.Unlock()

	s.dispatch(d, true)
}

// SendEnvelope serializes v as JSON and buffers it.
func (s *Sender) SendEnvelope(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed adding telemetry to the sender's buffer, some telemetry will be lost",
			log.Code(log.FailedAddingTelemetryToBuffer),
			log.Err(err),
		)
		return
	}
	s.Send(string(data))
}

// TriggerSend transmits everything currently pending. With async false the
// call returns only after the result has been applied.
func (s *Sender) TriggerSend(async bool) {
	s.mu.Lock()
	d := s.triggerSendLocked()
	s.mu.Unlock()

	s.dispatch(d, async)
}

// triggerSendLocked snapshots pending items into a delivery. It always
// cancels the flush timer and the retry deadline.
func (s *Sender) triggerSendLocked() *delivery {
	var d *delivery

	switch {
	case s.cfg.DisableTelemetry():
		s.buffer.Clear()
	case s.buffer.Count() > 0 && s.transport != nil:
		if err := s.transport.Preflight(); err != nil {
			s.logger.Error("cannot send telemetry, clearing buffer",
				log.Code(log.ProtocolMismatch),
				log.String("transport", s.transport.Kind().String()),
				log.Err(err),
			)
			s.buffer.Clear()
			break
		}

		items := s.buffer.Items()
		body := s.buffer.BatchPayloads(items)
		s.buffer.MarkAsSent(items)
		s.beginLocked()
		d = &delivery{transport: s.transport, items: items, body: body}
		s.lastSend = s.clock.Now()
	}

	s.stopTimerLocked()
	s.retryAt = time.Time{}
	s.pendingBytes, s.pendingCount = 0, 0
	return d
}

// batchLimit is the largest body the active transport should be handed.
func (s *Sender) batchLimit() int {
	limit := s.cfg.MaxBatchSizeInBytes()
	if s.transport != nil && s.transport.Kind() == transport.KindBeacon && limit > transport.MaxBeaconBytes {
		limit = transport.MaxBeaconBytes
	}
	return limit
}

// syncPendingLocked recounts the pending partition when it was changed
// behind the sender's back, for example by a restored durable buffer.
func (s *Sender) syncPendingLocked() {
	n := s.buffer.Count()
	if n == s.pendingCount {
		return
	}
	s.pendingBytes = 0
	for _, it := range s.buffer.Items() {
		s.pendingBytes += len(it)
	}
	s.pendingCount = n
}

// batchSizeLocked returns the length BatchPayloads would produce for the
// pending partition.
func (s *Sender) batchSizeLocked() int {
	s.syncPendingLocked()
	if s.pendingCount == 0 {
		return 0
	}
	size := s.pendingBytes + s.pendingCount - 1
	if !s.cfg.EmitLineDelimitedJSON() {
		size += 2
	}
	return size
}

// enqueueLocked buffers payload and reports whether the buffer kept it.
func (s *Sender) enqueueLocked(payload string) bool {
	s.syncPendingLocked()
	s.buffer.Enqueue(payload)
	if s.buffer.Count() == s.pendingCount {
		return false
	}
	s.pendingCount++
	s.pendingBytes += len(payload)
	return true
}

func (s *Sender) dispatch(d *delivery, async bool) {
	if d == nil {
		return
	}
	run := func() {
		ctx := context.Background()
		if timeout := s.cfg.HTTPTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res := d.transport.Transmit(ctx, d.body)
		s.handleResult(d, res)
	}
	if async {
		go run()
		return
	}
	run()
}

// handleResult routes a transmission outcome into success, partial success,
// resend or drop.
func (s *Sender) handleResult(d *delivery, res transport.Result) {
	s.mu.Lock()
	var events []func()
	emit := func(e func()) {
		if e != nil {
			events = append(events, e)
		}
	}

	kind := d.transport.Kind()
	retryEnabled := !s.cfg.IsRetryDisabled()

	switch {
	case res.Err != nil:
		emit(s.dropLocked(kind, d.items, res.StatusCode, res.Err.Error()))

	case kind == transport.KindBeacon:
		if res.Queued {
			s.consecutiveErrors = 0
			emit(s.deliveredLocked(kind, d.items))
		} else {
			emit(s.dropLocked(kind, d.items, 0, "beacon was not queued"))
		}

	case kind == transport.KindLegacy:
		body := string(res.Body)
		if body == "" || body == "200" {
			s.consecutiveErrors = 0
			emit(s.deliveredLocked(kind, d.items))
			break
		}
		resp := s.parseLocked(res.Body)
		if resp != nil && resp.ItemsReceived > resp.ItemsAccepted && retryEnabled {
			for _, e := range s.partialLocked(kind, d.items, resp) {
				emit(e)
			}
			break
		}
		emit(s.dropLocked(kind, d.items, 0, formatFailure(0, res.Body)))

	default:
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			if retryEnabled && IsRetriable(res.StatusCode) {
				s.logger.Warn("transmission failed, will retry",
					log.Code(log.TransmissionRetry),
					log.Int("status", res.StatusCode),
					log.Int("items", len(d.items)),
				)
				emit(s.resendLocked(kind, d.items, res.StatusCode))
			} else {
				emit(s.dropLocked(kind, d.items, res.StatusCode, formatFailure(res.StatusCode, res.Body)))
			}
			break
		}

		var resp *BackendResponse
		if res.StatusCode == http.StatusPartialContent {
			resp = s.parseLocked(res.Body)
		} else if r, err := ParseResponse(res.Body); err == nil {
			// Plain 2xx bodies are optional; only a valid report is used.
			resp = r
			if r.AppID != "" {
				s.appID = r.AppID
			}
		}
		if res.StatusCode == http.StatusPartialContent || (resp != nil && resp.ItemsReceived > resp.ItemsAccepted) {
			if resp != nil && retryEnabled {
				for _, e := range s.partialLocked(kind, d.items, resp) {
					emit(e)
				}
			} else {
				emit(s.dropLocked(kind, d.items, res.StatusCode, formatFailure(res.StatusCode, res.Body)))
			}
			break
		}
		s.consecutiveErrors = 0
		emit(s.deliveredLocked(kind, d.items))
	}

	s.endLocked()
	s.mu.Unlock()

	for _, e := range events {
		e()
	}
}

func (s *Sender) parseLocked(body []byte) *BackendResponse {
	resp, err := ParseResponse(body)
	if err != nil {
		s.logger.Error("cannot parse the response",
			log.Code(log.InvalidBackendResponse),
			log.String("response", string(body)),
			log.Err(err),
		)
		return nil
	}
	if resp.AppID != "" {
		s.appID = resp.AppID
	}
	return resp
}

// partialLocked splits items by the backend's per-item errors and applies
// each outcome. Any of the three may be empty.
func (s *Sender) partialLocked(kind transport.Kind, items []string, resp *BackendResponse) []func() {
	split := splitPartial(items, resp)

	var events []func()
	if len(split.delivered) > 0 {
		events = append(events, s.deliveredLocked(kind, split.delivered))
	}
	if len(split.failed) > 0 {
		events = append(events, s.dropLocked(kind, split.failed, http.StatusPartialContent,
			fmt.Sprintf("partial success: %d of %d items rejected", len(split.failed), len(items))))
	}
	if len(split.retry) > 0 {
		s.logger.Warn("partial success, will retry rejected items",
			log.Code(log.TransmissionRetry),
			log.Int("delivered", len(split.delivered)),
			log.Int("failed", len(split.failed)),
			log.Int("retry", len(split.retry)),
		)
		events = append(events, s.resendLocked(kind, split.retry, http.StatusPartialContent))
	}
	return events
}

func (s *Sender) deliveredLocked(kind transport.Kind, items []string) func() {
	s.buffer.ClearSent(items)

	bytes := 0
	for _, it := range items {
		bytes += len(it)
	}
	s.logger.Debug("telemetry delivered",
		log.Code(log.TransmissionDelivered),
		log.String("transport", kind.String()),
		log.Int("items", len(items)),
	)

	h := s.handler
	ev := DeliveredEvent{Transport: kind, Items: len(items), Bytes: bytes}
	return func() { h.OnDelivered(ev) }
}

func (s *Sender) dropLocked(kind transport.Kind, items []string, status int, message string) func() {
	s.logger.Warn("failed to send telemetry",
		log.Code(log.TransmissionFailed),
		log.String("transport", kind.String()),
		log.Int("items", len(items)),
		log.String("message", message),
	)
	s.buffer.ClearSent(items)

	h := s.handler
	ev := DroppedEvent{Transport: kind, Items: len(items), StatusCode: status, Message: message}
	return func() { h.OnDropped(ev) }
}

// resendLocked puts items back at the end of the buffer and schedules the
// next flush after the backoff delay.
func (s *Sender) resendLocked(kind transport.Kind, items []string, status int) func() {
	if len(items) == 0 {
		return nil
	}
	s.buffer.ClearSent(items)
	s.consecutiveErrors++
	requeued := 0
	for _, it := range items {
		if s.enqueueLocked(it) {
			requeued++
		}
	}

	delay := BackoffDelay(s.consecutiveErrors, s.random())
	s.retryAt = s.clock.Now().Add(delay)
	// A timer armed by a Send during the flight would ignore retryAt.
	s.stopTimerLocked()
	s.armTimerLocked()

	h := s.handler
	ev := RetryScheduledEvent{
		Transport:         kind,
		Items:             requeued,
		StatusCode:        status,
		ConsecutiveErrors: s.consecutiveErrors,
		RetryAt:           s.retryAt,
	}
	return func() { h.OnRetryScheduled(ev) }
}

// armTimerLocked starts the flush timer unless one is already pending.
func (s *Sender) armTimerLocked() {
	if s.timer != nil || s.closed {
		return
	}

	delay := s.cfg.MaxBatchInterval()
	if !s.retryAt.IsZero() {
		if untilRetry := s.retryAt.Sub(s.clock.Now()); untilRetry > delay {
			delay = untilRetry
		}
	}
	if delay < 0 {
		delay = 0
	}

	s.timerSeq++
	seq := s.timerSeq
	s.timer = s.clock.AfterFunc(delay, func() { s.onTimer(seq) })
}

func (s *Sender) stopTimerLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.timerSeq++
}

func (s *Sender) onTimer(seq uint64) {
	s.mu.Lock()
	if seq != s.timerSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	d := s.triggerSendLocked()
	s.mu.Unlock()

	s.dispatch(d, true)
}

func (s *Sender) beginLocked() {
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
}

func (s *Sender) endLocked() {
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}
}

// Wait blocks until no transmission is in flight or ctx is done.
func (s *Sender) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the flush timer and keeps it from being armed again until
// Reopen. Buffered payloads are kept.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

// Reopen undoes Close and schedules a flush if anything is pending.
func (s *Sender) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	if s.buffer.Count() > 0 {
		s.armTimerLocked()
	}
}

// Pending returns the number of payloads waiting to be sent.
func (s *Sender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Count()
}

// ConsecutiveErrors returns the current streak of retriable failures.
func (s *Sender) ConsecutiveErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveErrors
}

// RetryAt returns the earliest time of the next attempt, or zero.
func (s *Sender) RetryAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryAt
}

// LastSend returns when a batch was last handed to the transport.
func (s *Sender) LastSend() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSend
}

// AppID returns the application id last reported by the backend.
func (s *Sender) AppID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appID
}

// TimerArmed reports whether a flush is scheduled.
func (s *Sender) TimerArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Transport returns the active strategy, or KindNone.
func (s *Sender) Transport() transport.Kind {
	if s.transport == nil {
		return transport.KindNone
	}
	return s.transport.Kind()
}

func formatFailure(status int, body []byte) string {
	if status == 0 {
		return fmt.Sprintf("response: %s", body)
	}
	return fmt.Sprintf("status %d, response: %s", status, body)
}
