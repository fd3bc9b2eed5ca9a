package buffer

import "strings"

// Buffer stores pending payloads.
//
// Capacity applies to each partition separately. A durable buffer can hold
// up to its maximum in pending items plus as many again in flight, so the
// total is bounded by twice the maximum.
type Buffer interface {
	// Enqueue appends payload, or drops it when the buffer is at capacity.
	Enqueue(payload string)

	// Count returns the number of pending payloads.
	Count() int

	// Items returns a copy of the pending payloads in enqueue order.
	Items() []string

	// Clear empties every partition.
	Clear()

	// BatchPayloads joins payloads into a request body.
	BatchPayloads(payloads []string) []byte

	// MarkAsSent records that payloads were handed to the transport.
	MarkAsSent(payloads []string)

	// ClearSent forgets payloads whose transmission has been resolved.
	ClearSent(payloads []string)
}

// BatchPayloads joins payloads into one body. It returns nil for no payloads,
// newline separated lines when lineDelimited is set, and a JSON array otherwise.
func BatchPayloads(payloads []string, lineDelimited bool) []byte {
	if len(payloads) == 0 {
		return nil
	}
	if lineDelimited {
		return []byte(strings.Join(payloads, "\n"))
	}
	return []byte("[" + strings.Join(payloads, ",") + "]")
}

// removeEach drops one occurrence of every element of remove from items,
// keeping the order of what is left.
func removeEach(items, remove []string) []string {
	if len(remove) == 0 || len(items) == 0 {
		return items
	}
	counts := make(map[string]int, len(remove))
	for _, r := range remove {
		counts[r]++
	}
	out := items[:0:0]
	for _, it := range items {
		if counts[it] > 0 {
			counts[it]--
			continue
		}
		out = append(out, it)
	}
	return out
}
