package hal

import (
	"errors"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"go.uber.org/zap"
)

var ErrNoHardware = errors.New("no hardware driver available on this build; set hardware.simulated")

// Board bundles the sensor input and the brightness output.
type Board struct {
	Sensor *SimulatedPin
	PWM    *SimulatedPWM
	Output *PWMOutput
}

// NewBoard wires the I/O described by cfg.
func NewBoard(cfg config.HardwareConfig, logger *zap.Logger) (*Board, error) {
	if !cfg.Simulated {
		return nil, ErrNoHardware
	}

	sensor := NewSimulatedPin(cfg.SensorPin)
	pwm := NewSimulatedPWM(cfg.OutputPin)

	output, err := NewPWMOutput(pwm, settings.MaxLevel, cfg.OutputActiveLow)
	if err != nil {
		return nil, err
	}
	// start dark
	output.Write(settings.MinLevel)

	logger.Info("Simulated board ready",
		zap.Int("sensor_pin", cfg.SensorPin),
		zap.Int("output_pin", cfg.OutputPin),
		zap.Bool("output_active_low", cfg.OutputActiveLow))

	return &Board{Sensor: sensor, PWM: pwm, Output: output}, nil
}
