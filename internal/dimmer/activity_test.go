package dimmer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestActivityTracker_IdleDuration(t *testing.T) {
	clock := newFakeClock()
	tracker := NewActivityTracker(clock.Now)

	assert.Equal(t, time.Duration(0), tracker.IdleDuration())

	clock.Advance(3 * time.Minute)
	assert.Equal(t, 3*time.Minute, tracker.IdleDuration())

	tracker.RecordActivity()
	assert.Equal(t, time.Duration(0), tracker.IdleDuration())
	assert.Equal(t, clock.Now(), tracker.LastActivity())

	clock.Advance(EcoIdleTimeout + time.Second)
	assert.Greater(t, tracker.IdleDuration(), EcoIdleTimeout)
}
