package settings

import "fmt"

// Brightness bounds shared by the settings model and the engine.
const (
	MinLevel = 0
	MaxLevel = 1023

	MinSensorBrightness = 10
	MaxSensorBrightness = MaxLevel
)

type Mode int32

const (
	ModeSensor Mode = 0
	ModeManual Mode = 1
)

func (m Mode) Valid() bool {
	return m == ModeSensor || m == ModeManual
}

func (m Mode) String() string {
	switch m {
	case ModeSensor:
		return "sensor"
	case ModeManual:
		return "manual"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// ParseMode accepts both the symbolic names and the numeric form used by the
// HTML form ("0", "1").
func ParseMode(s string) (Mode, error) {
	switch s {
	case "sensor", "0":
		return ModeSensor, nil
	case "manual", "1":
		return ModeManual, nil
	default:
		return 0, fmt.Errorf("unknown mode: %q", s)
	}
}

type Language int32

const (
	LanguageEN Language = 0
	LanguageRU Language = 1
)

func (l Language) Valid() bool {
	return l == LanguageEN || l == LanguageRU
}

func (l Language) String() string {
	switch l {
	case LanguageEN:
		return "en"
	case LanguageRU:
		return "ru"
	default:
		return fmt.Sprintf("language(%d)", int32(l))
	}
}

func ParseLanguage(s string) (Language, error) {
	switch s {
	case "en", "0":
		return LanguageEN, nil
	case "ru", "1":
		return LanguageRU, nil
	default:
		return 0, fmt.Errorf("unknown language: %q", s)
	}
}

// Configuration is the persisted controller record.
type Configuration struct {
	Mode                Mode     `json:"mode"`
	InvertLogic         bool     `json:"invert_logic"`
	SensorMaxBrightness int      `json:"sensor_max_brightness"`
	Language            Language `json:"language"`
}

// Default is the record used whenever storage holds nothing usable.
func Default() Configuration {
	return Configuration{
		Mode:                ModeSensor,
		InvertLogic:         false,
		SensorMaxBrightness: MaxSensorBrightness,
		Language:            LanguageEN,
	}
}

// Valid reports whether the record can be used as loaded. An unknown mode
// usually means blank storage or a record written with a different layout;
// either way the record is discarded as a whole, never patched.
func (c Configuration) Valid() bool {
	return c.Mode.Valid() &&
		c.Language.Valid() &&
		c.SensorMaxBrightness >= MinSensorBrightness &&
		c.SensorMaxBrightness <= MaxSensorBrightness
}

// Update is a partial mutation; nil fields are left unchanged.
type Update struct {
	Mode                *Mode     `json:"mode,omitempty"`
	InvertLogic         *bool     `json:"invert_logic,omitempty"`
	SensorMaxBrightness *int      `json:"sensor_max_brightness,omitempty"`
	Language            *Language `json:"language,omitempty"`
}

func (u Update) Empty() bool {
	return u.Mode == nil && u.InvertLogic == nil && u.SensorMaxBrightness == nil && u.Language == nil
}

// ApplyTo returns c with every non-nil field of u copied over.
func (u Update) ApplyTo(c Configuration) Configuration {
	if u.Mode != nil {
		c.Mode = *u.Mode
	}
	if u.InvertLogic != nil {
		c.InvertLogic = *u.InvertLogic
	}
	if u.SensorMaxBrightness != nil {
		c.SensorMaxBrightness = *u.SensorMaxBrightness
	}
	if u.Language != nil {
		c.Language = *u.Language
	}
	return c
}

// ClampSensorBrightness bounds v to the range accepted for sensor mode.
func ClampSensorBrightness(v int) int {
	if v < MinSensorBrightness {
		return MinSensorBrightness
	}
	if v > MaxSensorBrightness {
		return MaxSensorBrightness
	}
	return v
}

// ClampLevel bounds v to the output range.
func ClampLevel(v int) int {
	if v < MinLevel {
		return MinLevel
	}
	if v > MaxLevel {
		return MaxLevel
	}
	return v
}
