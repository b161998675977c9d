package hal

import (
	"fmt"
	"sync"
)

// PWMDriver is the duty-cycle register of one PWM channel.
type PWMDriver interface {
	Configure(top int) error
	Set(duty int)
}

// PWMOutput maps logical brightness 0..Top onto a PWM channel.
//
// ActiveLow is a board property: the LED on the Wemos D1 mini is wired
// to the supply and lights when the pin is low, so the drive value is the
// complement of the brightness. The brightness model never sees this.
type PWMOutput struct {
	driver    PWMDriver
	top       int
	activeLow bool

	mu   sync.Mutex
	last int
}

func NewPWMOutput(driver PWMDriver, top int, activeLow bool) (*PWMOutput, error) {
	if top <= 0 {
		return nil, fmt.Errorf("invalid pwm top: %d", top)
	}
	if err := driver.Configure(top); err != nil {
		return nil, fmt.Errorf("failed to configure pwm: %w", err)
	}
	return &PWMOutput{driver: driver, top: top, activeLow: activeLow}, nil
}

func (o *PWMOutput) clamp(lvl int) int {
	if lvl < 0 {
		return 0
	}
	if lvl > o.top {
		return o.top
	}
	return lvl
}

func (o *PWMOutput) toPhys(logical int) int {
	l := o.clamp(logical)
	if !o.activeLow {
		return l
	}
	return o.top - l
}

// Write sets the logical level.
func (o *PWMOutput) Write(level int) {
	l := o.clamp(level)

	o.mu.Lock()
	o.last = l
	o.mu.Unlock()

	o.driver.Set(o.toPhys(l))
}

// Level is the last logical level written.
func (o *PWMOutput) Level() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
