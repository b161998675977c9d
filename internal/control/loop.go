package control

import (
	"sync"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"go.uber.org/zap"
)

// Ticker is the periodic time source driving the loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(interval time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default TickerFactory.
func NewTimeTicker(interval time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(interval)}
}

// Tickable is the control step executed every period.
type Tickable interface {
	Tick() dimmer.BrightnessState
}

// Loop runs Tick at a fixed period on its own goroutine. Ticks are strictly
// sequential; a tick that overruns delays the next one instead of
// overlapping it.
type Loop struct {
	target    Tickable
	interval  time.Duration
	newTicker TickerFactory
	logger    *zap.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewLoop(target Tickable, interval time.Duration, newTicker TickerFactory, logger *zap.Logger) *Loop {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	return &Loop{
		target:    target,
		interval:  interval,
		newTicker: newTicker,
		logger:    logger,
	}
}

// Start startet den Regelkreis
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}

	l.running = true
	l.stopChan = make(chan struct{})
	ticker := l.newTicker(l.interval)

	l.wg.Add(1)
	go l.run(ticker, l.stopChan)

	l.logger.Info("Control loop started", zap.Duration("interval", l.interval))
	return nil
}

// Stop stoppt den Regelkreis und wartet auf den laufenden Tick
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	close(l.stopChan)
	l.stopChan = nil
	l.running = false
	l.mu.Unlock()

	l.wg.Wait()

	l.logger.Info("Control loop stopped")
}

func (l *Loop) run(ticker Ticker, stop <-chan struct{}) {
	defer l.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			l.target.Tick()
		}
	}
}

func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}
