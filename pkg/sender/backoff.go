package sender

import (
	"math"
	"time"
)

const (
	// SlotDelay is the backoff unit and the minimum retry delay.
	SlotDelay = 10 * time.Second

	// MaxRetryDelay caps the retry delay.
	MaxRetryDelay = time.Hour
)

// BackoffDelay returns the wait before the next attempt after
// consecutiveErrors failures in a row. r is a random number in [0, 1).
//
// One failure waits SlotDelay. After that the delay is drawn from
// 1 + floor(r * (2^n - 1) / 2 * 10) seconds, clamped to [SlotDelay, MaxRetryDelay].
func BackoffDelay(consecutiveErrors int, r float64) time.Duration {
	if consecutiveErrors <= 1 {
		return SlotDelay
	}
	// Past 52 the slot no longer fits a float64 mantissa; the clamp applies anyway.
	n := consecutiveErrors
	if n > 52 {
		n = 52
	}
	slot := (math.Pow(2, float64(n)) - 1) / 2
	candidate := math.Floor(r*slot*SlotDelay.Seconds()) + 1

	seconds := math.Max(math.Min(candidate, MaxRetryDelay.Seconds()), SlotDelay.Seconds())
	return time.Duration(seconds) * time.Second
}
