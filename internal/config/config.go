package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Control  ControlConfig  `mapstructure:"control"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Eco      EcoConfig      `mapstructure:"eco"`
	Device   DeviceConfig   `mapstructure:"device"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ControlConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// HardwareConfig describes the board wiring. OutputActiveLow is a property
// of the LED driver, not of the brightness model: when set, the drive value
// written to the pin is the complement of the brightness.
type HardwareConfig struct {
	Simulated       bool `mapstructure:"simulated"`
	SensorPin       int  `mapstructure:"sensor_pin"`
	OutputPin       int  `mapstructure:"output_pin"`
	OutputActiveLow bool `mapstructure:"output_active_low"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"` // eeprom | postgres | memory
	Path    string `mapstructure:"path"`
	Offset  int64  `mapstructure:"offset"`
	Slot    int    `mapstructure:"slot"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type MQTTConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Broker          string `mapstructure:"broker"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	ClientID        string `mapstructure:"client_id"`
	TopicPrefix     string `mapstructure:"topic_prefix"`
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
}

type EcoConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

type DeviceConfig struct {
	NamePrefix string `mapstructure:"name_prefix"`
	ChipID     string `mapstructure:"chip_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 80)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("control.tick_interval", "10ms")

	v.SetDefault("hardware.simulated", true)
	v.SetDefault("hardware.sensor_pin", 5)
	v.SetDefault("hardware.output_pin", 2)
	v.SetDefault("hardware.output_active_low", true)

	v.SetDefault("storage.backend", "eeprom")
	v.SetDefault("storage.path", "data/eeprom.bin")
	v.SetDefault("storage.offset", 0)
	v.SetDefault("storage.slot", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "dimmer")
	v.SetDefault("database.user", "dimmer")
	v.SetDefault("database.max_connections", 2)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "dimmer")
	v.SetDefault("mqtt.discovery_prefix", "homeassistant")

	v.SetDefault("eco.idle_timeout", "15m")
	v.SetDefault("eco.check_interval", "10s")

	v.SetDefault("device.name_prefix", "Wemos-Dimmer")
}

// Load reads the YAML file at path. An empty path runs on defaults and
// environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment Variables mit Prefix DIMMER_
	v.SetEnvPrefix("DIMMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Control.TickInterval <= 0 {
		return fmt.Errorf("control.tick_interval must be positive, got %s", c.Control.TickInterval)
	}
	switch c.Storage.Backend {
	case "eeprom", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage.backend: %q", c.Storage.Backend)
	}
	if c.Storage.Offset < 0 {
		return fmt.Errorf("storage.offset must not be negative, got %d", c.Storage.Offset)
	}
	if c.Eco.IdleTimeout <= 0 {
		return fmt.Errorf("eco.idle_timeout must be positive, got %s", c.Eco.IdleTimeout)
	}
	if c.Eco.CheckInterval <= 0 {
		return fmt.Errorf("eco.check_interval must be positive, got %s", c.Eco.CheckInterval)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}
