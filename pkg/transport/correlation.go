package transport

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderRequestRootID = "x-ms-request-root-id"
	HeaderRequestID     = "x-ms-request-id"
)

// SameOrigin reports whether endpoint shares scheme and host with origin.
// An empty origin never matches.
func SameOrigin(endpoint, origin string) bool {
	if origin == "" {
		return false
	}
	e, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	o, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(e.Scheme, o.Scheme) && strings.EqualFold(e.Host, o.Host)
}

// newRootID returns a 32 character hex id.
func newRootID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func setCorrelationHeaders(h http.Header) {
	root := newRootID()
	span := newRootID()[:8]
	h.Set(HeaderRequestRootID, root)
	h.Set(HeaderRequestID, "|"+root+"."+span+".")
}
