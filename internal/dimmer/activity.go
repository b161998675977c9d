package dimmer

import (
	"sync"
	"time"
)

// EcoIdleTimeout is the default inactivity threshold reported to the
// power-saving policy of the network layer.
const EcoIdleTimeout = 15 * time.Minute

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// ActivityTracker remembers the last externally visible interaction.
type ActivityTracker struct {
	now Clock

	mu   sync.RWMutex
	last time.Time
}

func NewActivityTracker(now Clock) *ActivityTracker {
	if now == nil {
		now = time.Now
	}
	return &ActivityTracker{now: now, last: now()}
}

func (a *ActivityTracker) RecordActivity() {
	a.mu.Lock()
	a.last = a.now()
	a.mu.Unlock()
}

func (a *ActivityTracker) LastActivity() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

func (a *ActivityTracker) IdleDuration() time.Duration {
	return a.now().Sub(a.LastActivity())
}
