package system

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/control"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeIdle struct {
	mu   sync.Mutex
	idle time.Duration
}

func (f *fakeIdle) IdleDuration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idle
}

func (f *fakeIdle) set(d time.Duration) {
	f.mu.Lock()
	f.idle = d
	f.mu.Unlock()
}

type idleRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *idleRecorder) Idle(idle, threshold time.Duration) {
	r.mu.Lock()
	r.calls = append(r.calls, idle)
	r.mu.Unlock()
}

func (r *idleRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type chanTicker struct {
	c chan time.Time
}

func (t *chanTicker) C() <-chan time.Time {
	return t.c
}

func (t *chanTicker) Stop() {}

func TestEcoMonitor_FiresOncePerIdlePeriod(t *testing.T) {
	src := &fakeIdle{}
	rec := &idleRecorder{}
	m := NewEcoMonitor(src, 15*time.Minute, time.Second, nil, zap.NewNop())
	m.OnIdle(rec)

	src.set(14 * time.Minute)
	assert.False(t, m.Check())

	src.set(15 * time.Minute)
	assert.True(t, m.Check())

	src.set(20 * time.Minute)
	assert.False(t, m.Check())
	assert.Equal(t, 1, rec.count())
}

func TestEcoMonitor_RearmsAfterActivity(t *testing.T) {
	src := &fakeIdle{}
	rec := &idleRecorder{}
	m := NewEcoMonitor(src, time.Minute, time.Second, nil, zap.NewNop())
	m.OnIdle(rec)

	src.set(2 * time.Minute)
	assert.True(t, m.Check())

	// activity and a second idle period between two checks
	src.set(90 * time.Second)
	assert.True(t, m.Check())

	src.set(10 * time.Second)
	assert.False(t, m.Check())

	src.set(time.Minute)
	assert.True(t, m.Check())
	assert.Equal(t, 3, rec.count())
}

func TestEcoMonitor_CallsEveryHandler(t *testing.T) {
	src := &fakeIdle{idle: time.Hour}
	m := NewEcoMonitor(src, time.Minute, time.Second, nil, zap.NewNop())

	var got []time.Duration
	m.OnIdle(IdleHandlerFunc(func(idle, threshold time.Duration) {
		got = append(got, idle, threshold)
	}))
	rec := &idleRecorder{}
	m.OnIdle(rec)

	m.Check()
	assert.Equal(t, []time.Duration{time.Hour, time.Minute}, got)
	assert.Equal(t, 1, rec.count())
}

func TestEcoMonitor_Run(t *testing.T) {
	src := &fakeIdle{idle: time.Hour}
	rec := &idleRecorder{}
	ticker := &chanTicker{c: make(chan time.Time)}
	m := NewEcoMonitor(src, time.Minute, time.Second, func(time.Duration) control.Ticker { return ticker }, zap.NewNop())
	m.OnIdle(rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	ticker.c <- time.Now()
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)

	cancel()
	<-done
}
