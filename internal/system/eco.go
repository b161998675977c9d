package system

import (
	"context"
	"sync"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/control"
	"go.uber.org/zap"
)

// IdleSource reports how long the device has been without interaction.
type IdleSource interface {
	IdleDuration() time.Duration
}

// IdleHandler is called once each time the idle threshold is crossed.
type IdleHandler interface {
	Idle(idle, threshold time.Duration)
}

type IdleHandlerFunc func(idle, threshold time.Duration)

func (f IdleHandlerFunc) Idle(idle, threshold time.Duration) { f(idle, threshold) }

// EcoMonitor polls the idle duration and notifies handlers when it exceeds
// the threshold. It fires once per idle period and re-arms as soon as new
// activity is seen. No power state is changed here; that is up to the
// handlers.
type EcoMonitor struct {
	source    IdleSource
	threshold time.Duration
	interval  time.Duration
	newTicker control.TickerFactory
	logger    *zap.Logger

	mu       sync.Mutex
	handlers []IdleHandler
	fired    bool
	lastIdle time.Duration
}

func NewEcoMonitor(source IdleSource, threshold, interval time.Duration, newTicker control.TickerFactory, logger *zap.Logger) *EcoMonitor {
	if newTicker == nil {
		newTicker = control.NewTimeTicker
	}
	return &EcoMonitor{
		source:    source,
		threshold: threshold,
		interval:  interval,
		newTicker: newTicker,
		logger:    logger,
	}
}

func (m *EcoMonitor) OnIdle(h IdleHandler) {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

func (m *EcoMonitor) Threshold() time.Duration {
	return m.threshold
}

// Check evaluates the idle duration once and reports whether handlers were
// called.
func (m *EcoMonitor) Check() bool {
	idle := m.source.IdleDuration()

	m.mu.Lock()
	// idle went down: there was activity since the last check
	if idle < m.lastIdle || idle < m.threshold {
		m.fired = false
	}
	m.lastIdle = idle

	if m.fired || idle < m.threshold {
		m.mu.Unlock()
		return false
	}
	m.fired = true
	handlers := append([]IdleHandler(nil), m.handlers...)
	m.mu.Unlock()

	m.logger.Info("Idle threshold reached",
		zap.Duration("idle", idle),
		zap.Duration("threshold", m.threshold))

	for _, h := range handlers {
		h.Idle(idle, m.threshold)
	}
	return true
}

// Run checks every interval until ctx is done.
func (m *EcoMonitor) Run(ctx context.Context) {
	ticker := m.newTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			m.Check()
		}
	}
}
