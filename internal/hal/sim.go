package hal

import (
	"sync/atomic"
)

// SimulatedPin stands in for a GPIO input on host builds.
type SimulatedPin struct {
	pin   int
	level atomic.Bool
}

func NewSimulatedPin(pin int) *SimulatedPin {
	return &SimulatedPin{pin: pin}
}

func (p *SimulatedPin) Pin() int { return p.pin }

func (p *SimulatedPin) Read() bool { return p.level.Load() }

func (p *SimulatedPin) Set(level bool) { p.level.Store(level) }

// SimulatedPWM records the raw duty written by PWMOutput.
type SimulatedPWM struct {
	pin  int
	top  atomic.Int64
	duty atomic.Int64
}

func NewSimulatedPWM(pin int) *SimulatedPWM {
	return &SimulatedPWM{pin: pin}
}

func (p *SimulatedPWM) Pin() int { return p.pin }

func (p *SimulatedPWM) Configure(top int) error {
	p.top.Store(int64(top))
	return nil
}

func (p *SimulatedPWM) Set(duty int) { p.duty.Store(int64(duty)) }

func (p *SimulatedPWM) Duty() int { return int(p.duty.Load()) }

func (p *SimulatedPWM) Top() int { return int(p.top.Load()) }
