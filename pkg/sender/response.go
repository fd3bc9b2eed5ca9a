package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// BackendResponse is the ingestion endpoint's per-batch report.
type BackendResponse struct {
	ItemsReceived int             `json:"itemsReceived"`
	ItemsAccepted int             `json:"itemsAccepted"`
	Errors        []ResponseError `json:"errors"`
	AppID         string          `json:"appId,omitempty"`
}

// ResponseError describes one rejected item. Index points into the batch.
type ResponseError struct {
	Index      int    `json:"index"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

var errInvalidResponse = errors.New("invalid backend response")

// ParseResponse decodes body and checks that the counts are consistent:
// something was received, received >= accepted, and every rejection has an
// error entry.
func ParseResponse(body []byte) (*BackendResponse, error) {
	var resp BackendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidResponse, err)
	}
	if resp.ItemsReceived <= 0 ||
		resp.ItemsReceived < resp.ItemsAccepted ||
		resp.ItemsReceived-resp.ItemsAccepted != len(resp.Errors) {
		return nil, fmt.Errorf("%w: received %d, accepted %d, errors %d",
			errInvalidResponse, resp.ItemsReceived, resp.ItemsAccepted, len(resp.Errors))
	}
	return &resp, nil
}

// retriableStatus lists the statuses worth retrying.
var retriableStatus = map[int]bool{
	408: true, // request timeout
	429: true, // too many requests
	500: true, // internal server error
	503: true, // service unavailable
}

// IsRetriable reports whether an item or batch rejected with status should be retried.
func IsRetriable(status int) bool {
	return retriableStatus[status]
}

// partialSplit is a batch divided by a partial success response.
type partialSplit struct {
	delivered []string
	failed    []string
	retry     []string
}

// splitPartial removes every item referenced by resp.Errors from items and
// classifies it. Indices are applied highest first so earlier removals do not
// shift later ones; duplicates and out of range indices are ignored.
func splitPartial(items []string, resp *BackendResponse) partialSplit {
	errs := append([]ResponseError(nil), resp.Errors...)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Index > errs[j].Index })

	remaining := append([]string(nil), items...)
	var out partialSplit
	last := -1
	for _, e := range errs {
		if e.Index < 0 || e.Index >= len(remaining) || e.Index == last {
			continue
		}
		last = e.Index

		item := remaining[e.Index]
		remaining = append(remaining[:e.Index], remaining[e.Index+1:]...)
		if IsRetriable(e.StatusCode) {
			out.retry = append(out.retry, item)
		} else {
			out.failed = append(out.failed, item)
		}
	}
	out.delivered = remaining
	return out
}
