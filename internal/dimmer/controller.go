package dimmer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"go.uber.org/zap"
)

var ErrInvalidUpdate = errors.New("invalid configuration update")

// Sensor is the binary input polled once per tick.
type Sensor interface {
	Read() bool
}

// Output receives the post-fade level, 0..1023, once per tick. Pin polarity
// is the output's business.
type Output interface {
	Write(level int)
}

// Observer is notified after state changes, outside the controller lock.
type Observer interface {
	BrightnessChanged(state BrightnessState)
	ConfigurationChanged(cfg settings.Configuration)
}

// Snapshot is the read-only view handed to the request layer.
type Snapshot struct {
	Configuration settings.Configuration `json:"configuration"`
	Brightness    BrightnessState        `json:"brightness"`
	Commanded     int                    `json:"commanded"`
	Settled       bool                   `json:"settled"`
	SensorActive  bool                   `json:"sensor_active"`
	IdleDuration  time.Duration          `json:"idle_duration_ns"`
	Ticks         uint64                 `json:"ticks"`
}

// Controller owns the configuration and the brightness state. Both are
// guarded by one mutex so a tick never observes half of an external update.
type Controller struct {
	logger   *zap.Logger
	store    *settings.Store
	sensor   Sensor
	output   Output
	activity *ActivityTracker

	mu           sync.Mutex
	brightness   BrightnessState
	commanded    int
	sensorActive bool
	ticks        uint64

	observersMu sync.RWMutex
	observers   []Observer
}

func NewController(
	logger *zap.Logger,
	store *settings.Store,
	sensor Sensor,
	output Output,
	activity *ActivityTracker,
) *Controller {
	if activity == nil {
		activity = NewActivityTracker(nil)
	}
	return &Controller{
		logger:   logger,
		store:    store,
		sensor:   sensor,
		output:   output,
		activity: activity,
	}
}

// Subscribe registers an observer for brightness and configuration changes.
func (c *Controller) Subscribe(o Observer) {
	c.observersMu.Lock()
	c.observers = append(c.observers, o)
	c.observersMu.Unlock()
}

// Tick runs one control step: arbitrate, fade, write the output.
func (c *Controller) Tick() BrightnessState {
	c.mu.Lock()
	cfg := c.store.Get()
	sensor := c.sensor.Read()

	prev := c.brightness
	c.sensorActive = sensor
	c.brightness.Target = Arbitrate(cfg, sensor, c.commanded)
	c.brightness.Current = Fade(c.brightness.Current, c.brightness.Target)
	c.output.Write(c.brightness.Current)
	c.ticks++

	state := c.brightness
	c.mu.Unlock()

	if state != prev {
		c.notifyBrightness(state)
	}
	return state
}

// SetCommandedBrightness stores the remote command. The value only drives
// the output in manual mode; in sensor mode it is kept until the mode
// changes.
func (c *Controller) SetCommandedBrightness(value int) {
	clamped := settings.ClampLevel(value)

	c.mu.Lock()
	c.commanded = clamped
	manual := c.store.Get().Mode == settings.ModeManual
	if manual {
		c.brightness.Target = clamped
	}
	c.mu.Unlock()

	c.activity.RecordActivity()

	c.logger.Debug("Brightness command received",
		zap.Int("value", value),
		zap.Int("commanded", clamped),
		zap.Bool("applied", manual))
}

// UpdateConfiguration applies a partial update and persists it before
// returning. The write happens under the controller lock, so the tick loop
// waits for it.
func (c *Controller) UpdateConfiguration(ctx context.Context, u settings.Update) (settings.Configuration, error) {
	if u.Mode != nil && !u.Mode.Valid() {
		return c.store.Get(), fmt.Errorf("%w: mode %d", ErrInvalidUpdate, int32(*u.Mode))
	}
	if u.Language != nil && !u.Language.Valid() {
		return c.store.Get(), fmt.Errorf("%w: language %d", ErrInvalidUpdate, int32(*u.Language))
	}
	if u.SensorMaxBrightness != nil {
		v := settings.ClampSensorBrightness(*u.SensorMaxBrightness)
		u.SensorMaxBrightness = &v
	}

	c.mu.Lock()
	prev := c.store.Get()
	cfg, err := c.store.Apply(ctx, u)
	c.mu.Unlock()

	c.activity.RecordActivity()

	if err != nil {
		return cfg, err
	}

	c.logger.Info("Configuration updated",
		zap.String("mode", cfg.Mode.String()),
		zap.String("previous_mode", prev.Mode.String()),
		zap.Bool("invert_logic", cfg.InvertLogic),
		zap.Int("sensor_max_brightness", cfg.SensorMaxBrightness),
		zap.String("language", cfg.Language.String()))

	c.notifyConfiguration(cfg)
	return cfg, nil
}

// RecordActivity marks externally visible interaction observed by the
// network layer, such as a station joining the access point.
func (c *Controller) RecordActivity() {
	c.activity.RecordActivity()
}

func (c *Controller) IdleDuration() time.Duration {
	return c.activity.IdleDuration()
}

func (c *Controller) Configuration() settings.Configuration {
	return c.store.Get()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Configuration: c.store.Get(),
		Brightness:    c.brightness,
		Commanded:     c.commanded,
		Settled:       c.brightness.Settled(),
		SensorActive:  c.sensorActive,
		IdleDuration:  c.activity.IdleDuration(),
		Ticks:         c.ticks,
	}
}

func (c *Controller) notifyBrightness(state BrightnessState) {
	c.observersMu.RLock()
	defer c.observersMu.RUnlock()
	for _, o := range c.observers {
		o.BrightnessChanged(state)
	}
}

func (c *Controller) notifyConfiguration(cfg settings.Configuration) {
	c.observersMu.RLock()
	defer c.observersMu.RUnlock()
	for _, o := range c.observers {
		o.ConfigurationChanged(cfg)
	}
}
