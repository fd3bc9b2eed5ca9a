package transport

import "github.com/bft-labs/telship/pkg/config"

// Kind identifies a transport strategy.
type Kind int

const (
	KindNone Kind = iota
	KindBeacon
	KindRequest
	KindLegacy
)

func (k Kind) String() string {
	switch k {
	case KindBeacon:
		return "beacon"
	case KindRequest:
		return "request"
	case KindLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// Capabilities describes the delivery primitives the host provides.
type Capabilities struct {
	Beacon        bool
	Request       bool
	LegacyRequest bool
}

// DefaultCapabilities is what a Go process always has: a queued POST and a
// full request.
func DefaultCapabilities() Capabilities {
	return Capabilities{Beacon: true, Request: true}
}

// Detect picks the strategy for caps under cfg. The first match wins:
// beacon (unless disabled), request, legacy, none.
func Detect(caps Capabilities, cfg config.Provider) Kind {
	switch {
	case caps.Beacon && !cfg.IsBeaconAPIDisabled():
		return KindBeacon
	case caps.Request:
		return KindRequest
	case caps.LegacyRequest:
		return KindLegacy
	default:
		return KindNone
	}
}
