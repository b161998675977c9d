package dimmer

import "github.com/KevinKickass/OpenDimmer/internal/settings"

// Arbitrate decides the target brightness for one tick.
//
// In sensor mode the sensor level, optionally inverted, selects between
// SensorMaxBrightness and 0 and the commanded value is ignored. In manual
// mode the last commanded value is used and the sensor is ignored.
func Arbitrate(cfg settings.Configuration, sensor bool, commanded int) int {
	switch cfg.Mode {
	case settings.ModeManual:
		return settings.ClampLevel(commanded)
	default:
		active := sensor
		if cfg.InvertLogic {
			active = !active
		}
		if active {
			return settings.ClampLevel(cfg.SensorMaxBrightness)
		}
		return settings.MinLevel
	}
}
