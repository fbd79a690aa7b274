// Package reliability classifies transient faults on the outbound Yandex
// calls and computes retry backoff.
package reliability

import "time"

// RetryableStatus reports whether an HTTP status from the synthesis endpoint
// is worth retrying.
func RetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Backoff computes a deterministic capped exponential backoff for the given
// zero-based attempt.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}
