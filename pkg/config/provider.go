package config

import (
	"sync/atomic"
	"time"
)

// Provider exposes settings as zero-argument accessors resolved on every call.
type Provider interface {
	EndpointURL() string
	MaxBatchSizeInBytes() int
	MaxBatchInterval() time.Duration
	EmitLineDelimitedJSON() bool
	DisableTelemetry() bool
	EnableSessionStorageBuffer() bool
	IsRetryDisabled() bool
	IsBeaconAPIDisabled() bool
	DisableCorrelationHeaders() bool
	Origin() string
	MaxBufferSize() int
	EventsLimitInMem() int
	CompressRequests() bool
	HTTPTimeout() time.Duration
}

// Static is a Provider over a fixed Settings value.
type Static struct {
	s Settings
}

var _ Provider = Static{}

// NewStatic creates a Static provider holding s.
func NewStatic(s Settings) Static {
	return Static{s: s}
}

func (s Static) EndpointURL() string              { return s.s.EndpointURL }
func (s Static) MaxBatchSizeInBytes() int         { return s.s.MaxBatchSizeInBytes }
func (s Static) MaxBatchInterval() time.Duration  { return s.s.MaxBatchInterval }
func (s Static) EmitLineDelimitedJSON() bool      { return s.s.EmitLineDelimitedJSON }
func (s Static) DisableTelemetry() bool           { return s.s.DisableTelemetry }
func (s Static) EnableSessionStorageBuffer() bool { return s.s.EnableSessionStorageBuffer }
func (s Static) IsRetryDisabled() bool            { return s.s.IsRetryDisabled }
func (s Static) IsBeaconAPIDisabled() bool        { return s.s.IsBeaconAPIDisabled }
func (s Static) DisableCorrelationHeaders() bool  { return s.s.DisableCorrelationHeaders }
func (s Static) Origin() string                   { return s.s.Origin }
func (s Static) MaxBufferSize() int               { return s.s.MaxBufferSize }
func (s Static) EventsLimitInMem() int            { return s.s.EventsLimitInMem }
func (s Static) CompressRequests() bool           { return s.s.CompressRequests }
func (s Static) HTTPTimeout() time.Duration       { return s.s.HTTPTimeout }

// Settings returns the wrapped value.
func (s Static) Settings() Settings { return s.s }

// Live is a Provider whose settings can be replaced at any time.
// Accessors always observe the most recently stored value.
type Live struct {
	current atomic.Pointer[Settings]
}

var _ Provider = (*Live)(nil)

// NewLive creates a Live provider holding s.
func NewLive(s Settings) *Live {
	l := &Live{}
	l.Store(s)
	return l
}

// Store replaces the settings.
func (l *Live) Store(s Settings) {
	l.current.Store(&s)
}

// Load returns a copy of the current settings.
func (l *Live) Load() Settings {
	return *l.current.Load()
}

func (l *Live) EndpointURL() string              { return l.current.Load().EndpointURL }
func (l *Live) MaxBatchSizeInBytes() int         { return l.current.Load().MaxBatchSizeInBytes }
func (l *Live) MaxBatchInterval() time.Duration  { return l.current.Load().MaxBatchInterval }
func (l *Live) EmitLineDelimitedJSON() bool      { return l.current.Load().EmitLineDelimitedJSON }
func (l *Live) DisableTelemetry() bool           { return l.current.Load().DisableTelemetry }
func (l *Live) EnableSessionStorageBuffer() bool { return l.current.Load().EnableSessionStorageBuffer }
func (l *Live) IsRetryDisabled() bool            { return l.current.Load().IsRetryDisabled }
func (l *Live) IsBeaconAPIDisabled() bool        { return l.current.Load().IsBeaconAPIDisabled }
func (l *Live) DisableCorrelationHeaders() bool  { return l.current.Load().DisableCorrelationHeaders }
func (l *Live) Origin() string                   { return l.current.Load().Origin }
func (l *Live) MaxBufferSize() int               { return l.current.Load().MaxBufferSize }
func (l *Live) EventsLimitInMem() int            { return l.current.Load().EventsLimitInMem }
func (l *Live) CompressRequests() bool           { return l.current.Load().CompressRequests }
func (l *Live) HTTPTimeout() time.Duration       { return l.current.Load().HTTPTimeout }

// Snapshot reads every accessor of p into a Settings value.
func Snapshot(p Provider) Settings {
	switch v := p.(type) {
	case Static:
		return v.Settings()
	case *Live:
		return v.Load()
	}
	return Settings{
		EndpointURL:                p.EndpointURL(),
		MaxBatchSizeInBytes:        p.MaxBatchSizeInBytes(),
		MaxBatchInterval:           p.MaxBatchInterval(),
		EmitLineDelimitedJSON:      p.EmitLineDelimitedJSON(),
		DisableTelemetry:           p.DisableTelemetry(),
		EnableSessionStorageBuffer: p.EnableSessionStorageBuffer(),
		IsRetryDisabled:            p.IsRetryDisabled(),
		IsBeaconAPIDisabled:        p.IsBeaconAPIDisabled(),
		DisableCorrelationHeaders:  p.DisableCorrelationHeaders(),
		Origin:                     p.Origin(),
		MaxBufferSize:              p.MaxBufferSize(),
		EventsLimitInMem:           p.EventsLimitInMem(),
		CompressRequests:           p.CompressRequests(),
		HTTPTimeout:                p.HTTPTimeout(),
	}
}
