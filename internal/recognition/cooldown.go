package recognition

import (
	"sync"
	"time"
)

// Tracker records the wall-clock time of the last accepted action per
// key and suppresses repeats inside a fixed window. State is process-local
// and lost on restart; the worst case at a startup boundary is one extra
// action allowed or suppressed.
type Tracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether an action for key may proceed at now, and marks
// the key when it may. The check-and-mark happens under one lock, so two
// concurrent calls for the same key admit exactly one. Suppressed calls
// do not refresh the window.
func (t *Tracker) Allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if last, ok := t.last[key]; ok && now.Sub(last) < t.window {
		return false
	}
	t.last[key] = now
	return true
}

// Window returns the configured suppression window.
func (t *Tracker) Window() time.Duration {
	return t.window
}
