package observability

import (
	"sync"
	"time"
)

// LogThrottler rate-limits high-frequency log lines. Audio frames arrive many
// times per second; a throttled path logs at most once per key per interval.
// Keys are scoped per session so one chatty session cannot silence another.
type LogThrottler struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewLogThrottler() *LogThrottler {
	return &LogThrottler{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Allow reports whether a log line for the given session and key may be
// emitted, and records the emission time when it may.
func (t *LogThrottler) Allow(sessionID, key string, interval time.Duration) bool {
	composite := sessionID + ":" + key
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.last[composite]; ok && now.Sub(last) < interval {
		return false
	}
	t.last[composite] = now
	return true
}

// Forget drops all throttle state for a session. Called on teardown so the
// map does not grow with dead session ids.
func (t *LogThrottler) Forget(sessionID string) {
	prefix := sessionID + ":"
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.last {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(t.last, k)
		}
	}
}
