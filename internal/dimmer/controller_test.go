package dimmer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"github.com/KevinKickass/OpenDimmer/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSensor struct {
	level bool
}

func (f *fakeSensor) Read() bool { return f.level }

type recordingOutput struct {
	writes []int
}

func (r *recordingOutput) Write(level int) { r.writes = append(r.writes, level) }

func (r *recordingOutput) last() int {
	if len(r.writes) == 0 {
		return -1
	}
	return r.writes[len(r.writes)-1]
}

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) BrightnessChanged(state BrightnessState) {
	m.Called(state)
}

func (m *MockObserver) ConfigurationChanged(cfg settings.Configuration) {
	m.Called(cfg)
}

type failingPersistence struct{}

func (failingPersistence) Read(ctx context.Context) ([]byte, error) { return nil, settings.ErrNoRecord }

func (failingPersistence) Write(ctx context.Context, record []byte) error {
	return errors.New("flash write failed")
}

func newTestController(t *testing.T, cfg settings.Configuration) (*Controller, *fakeSensor, *recordingOutput) {
	t.Helper()

	store := settings.NewStore(storage.NewMemory(), zap.NewNop())
	require.NoError(t, store.Save(context.Background(), cfg))

	sensor := &fakeSensor{}
	output := &recordingOutput{}
	c := NewController(zap.NewNop(), store, sensor, output, nil)
	return c, sensor, output
}

func tickN(c *Controller, n int) BrightnessState {
	var s BrightnessState
	for i := 0; i < n; i++ {
		s = c.Tick()
	}
	return s
}

func TestController_SensorScenario(t *testing.T) {
	c, sensor, output := newTestController(t, settings.Configuration{
		Mode:                settings.ModeSensor,
		InvertLogic:         false,
		SensorMaxBrightness: 800,
	})

	snap := c.Snapshot()
	assert.Equal(t, BrightnessState{Current: 0, Target: 0}, snap.Brightness)

	sensor.level = true
	state := c.Tick()
	assert.Equal(t, 800, state.Target)
	assert.Equal(t, 20, state.Current)

	state = tickN(c, 39)
	assert.Equal(t, BrightnessState{Current: 800, Target: 800}, state)
	assert.True(t, c.Snapshot().Settled)
	assert.Len(t, output.writes, 40)
	assert.Equal(t, 800, output.last())

	sensor.level = false
	state = tickN(c, 40)
	assert.Equal(t, BrightnessState{Current: 0, Target: 0}, state)
	assert.Equal(t, 0, output.last())
}

func TestController_InversionCorrectness(t *testing.T) {
	c, sensor, _ := newTestController(t, settings.Configuration{
		Mode:                settings.ModeSensor,
		InvertLogic:         true,
		SensorMaxBrightness: 500,
	})

	sensor.level = true
	assert.Equal(t, 0, c.Tick().Target)

	sensor.level = false
	assert.Equal(t, 500, c.Tick().Target)
}

func TestController_CommandsInertInSensorMode(t *testing.T) {
	c, sensor, _ := newTestController(t, settings.Configuration{
		Mode:                settings.ModeSensor,
		SensorMaxBrightness: 700,
	})

	sensor.level = false
	c.Tick()

	c.SetCommandedBrightness(900)
	assert.Equal(t, 0, c.Tick().Target)
	assert.Equal(t, 900, c.Snapshot().Commanded)

	sensor.level = true
	c.SetCommandedBrightness(100)
	assert.Equal(t, 700, c.Tick().Target)
}

func TestController_SensorIgnoredInManualMode(t *testing.T) {
	c, sensor, _ := newTestController(t, settings.Configuration{
		Mode:                settings.ModeManual,
		SensorMaxBrightness: 700,
	})

	c.SetCommandedBrightness(333)
	for _, level := range []bool{true, false, true, true, false} {
		sensor.level = level
		assert.Equal(t, 333, c.Tick().Target)
	}
}

func TestController_ModeSwitchAppliesStoredCommandNextTick(t *testing.T) {
	c, sensor, _ := newTestController(t, settings.Configuration{
		Mode:                settings.ModeSensor,
		SensorMaxBrightness: 1023,
	})

	sensor.level = true
	tickN(c, 60)
	c.SetCommandedBrightness(200)
	assert.Equal(t, 1023, c.Tick().Target)

	mode := settings.ModeManual
	_, err := c.UpdateConfiguration(context.Background(), settings.Update{Mode: &mode})
	require.NoError(t, err)

	state := c.Tick()
	assert.Equal(t, 200, state.Target)
	assert.Equal(t, 1003, state.Current)
}

func TestController_CommandIsClamped(t *testing.T) {
	c, _, _ := newTestController(t, settings.Configuration{
		Mode:                settings.ModeManual,
		SensorMaxBrightness: 1023,
	})

	c.SetCommandedBrightness(5000)
	assert.Equal(t, 1023, c.Snapshot().Commanded)
	assert.Equal(t, 1023, c.Tick().Target)

	c.SetCommandedBrightness(-40)
	assert.Equal(t, 0, c.Tick().Target)
}

func TestController_UpdateConfigurationPersists(t *testing.T) {
	mem := storage.NewMemory()
	store := settings.NewStore(mem, zap.NewNop())
	store.Load(context.Background())
	c := NewController(zap.NewNop(), store, &fakeSensor{}, &recordingOutput{}, nil)

	invert := true
	sensorMax := 2000
	lang := settings.LanguageRU
	cfg, err := c.UpdateConfiguration(context.Background(), settings.Update{
		InvertLogic:         &invert,
		SensorMaxBrightness: &sensorMax,
		Language:            &lang,
	})
	require.NoError(t, err)

	want := settings.Configuration{
		Mode:                settings.ModeSensor,
		InvertLogic:         true,
		SensorMaxBrightness: 1023,
		Language:            settings.LanguageRU,
	}
	assert.Equal(t, want, cfg)
	assert.Equal(t, want, settings.NewStore(mem, zap.NewNop()).Load(context.Background()))
}

func TestController_UpdateConfigurationRejectsUnknownMode(t *testing.T) {
	c, _, _ := newTestController(t, settings.Default())

	mode := settings.Mode(7)
	_, err := c.UpdateConfiguration(context.Background(), settings.Update{Mode: &mode})

	assert.ErrorIs(t, err, ErrInvalidUpdate)
	assert.Equal(t, settings.Default(), c.Configuration())
}

func TestController_UpdateConfigurationWriteFailure(t *testing.T) {
	store := settings.NewStore(failingPersistence{}, zap.NewNop())
	store.Load(context.Background())
	c := NewController(zap.NewNop(), store, &fakeSensor{}, &recordingOutput{}, nil)

	mode := settings.ModeManual
	cfg, err := c.UpdateConfiguration(context.Background(), settings.Update{Mode: &mode})

	require.Error(t, err)
	assert.Equal(t, settings.ModeSensor, cfg.Mode)
	assert.Equal(t, settings.ModeSensor, c.Configuration().Mode)
}

func TestController_UpdatesRecordActivity(t *testing.T) {
	clock := newFakeClock()
	store := settings.NewStore(storage.NewMemory(), zap.NewNop())
	store.Load(context.Background())
	c := NewController(zap.NewNop(), store, &fakeSensor{}, &recordingOutput{}, NewActivityTracker(clock.Now))

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, c.IdleDuration())

	c.SetCommandedBrightness(10)
	assert.Equal(t, time.Duration(0), c.IdleDuration())

	clock.Advance(time.Minute)
	c.RecordActivity()
	assert.Equal(t, time.Duration(0), c.Snapshot().IdleDuration)
}

func TestController_NotifiesObservers(t *testing.T) {
	c, sensor, _ := newTestController(t, settings.Configuration{
		Mode:                settings.ModeSensor,
		SensorMaxBrightness: 40,
	})

	obs := new(MockObserver)
	obs.On("BrightnessChanged", BrightnessState{Current: 20, Target: 40}).Once()
	obs.On("BrightnessChanged", BrightnessState{Current: 40, Target: 40}).Once()
	obs.On("ConfigurationChanged", mock.MatchedBy(func(cfg settings.Configuration) bool {
		return cfg.Mode == settings.ModeManual
	})).Once()
	c.Subscribe(obs)

	sensor.level = true
	tickN(c, 5)

	mode := settings.ModeManual
	_, err := c.UpdateConfiguration(context.Background(), settings.Update{Mode: &mode})
	require.NoError(t, err)

	obs.AssertExpectations(t)
}
