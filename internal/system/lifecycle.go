package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/api/rest"
	"github.com/KevinKickass/OpenDimmer/internal/api/websocket"
	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/control"
	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"github.com/KevinKickass/OpenDimmer/internal/hal"
	"github.com/KevinKickass/OpenDimmer/internal/interfaces"
	"github.com/KevinKickass/OpenDimmer/internal/mqtt"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"github.com/KevinKickass/OpenDimmer/internal/storage"
	"go.uber.org/zap"
)

type LifecycleManager struct {
	config     *config.Config
	logger     *zap.Logger
	deviceName string
	startedAt  time.Time

	db         *storage.PostgresClient
	store      *settings.Store
	board      *hal.Board
	controller *dimmer.Controller
	loop       *control.Loop
	hub        *websocket.Hub
	bridge     *mqtt.Bridge
	eco        *EcoMonitor
	restServer *rest.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    error

	listenersMu     sync.RWMutex
	statusListeners []chan SystemStatus

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewLifecycleManager opens storage, loads the configuration and wires every
// component. Nothing runs until Start.
func NewLifecycleManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	persistence, db, err := openPersistence(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store := settings.NewStore(persistence, logger)
	store.Load(ctx)

	board, err := hal.NewBoard(cfg.Hardware, logger)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to initialize board: %w", err)
	}

	lm := &LifecycleManager{
		config:       cfg,
		logger:       logger,
		deviceName:   DeviceName(cfg.Device),
		db:           db,
		store:        store,
		board:        board,
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}

	lm.controller = dimmer.NewController(logger, store, board.Sensor, board.Output, nil)
	lm.loop = control.NewLoop(lm.controller, cfg.Control.TickInterval, nil, logger)

	lm.hub = websocket.NewHub(logger, lm.controller, lm.controller)
	lm.controller.Subscribe(lm.hub)

	lm.eco = NewEcoMonitor(lm.controller, cfg.Eco.IdleTimeout, cfg.Eco.CheckInterval, nil, logger)
	lm.eco.OnIdle(IdleHandlerFunc(func(idle, threshold time.Duration) {
		lm.hub.Broadcast(websocket.NewEcoIdleMessage(idle, threshold))
	}))

	if cfg.MQTT.Enabled {
		lm.bridge = mqtt.NewBridge(cfg.MQTT, lm.deviceName, lm.controller, logger)
		lm.controller.Subscribe(lm.bridge)
	}

	lm.restServer, err = rest.NewServer(cfg, lm, logger, lm.hub)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to create REST server: %w", err)
	}

	return lm, nil
}

// Start starts the entire system
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenDimmer", zap.String("device_name", lm.deviceName))

	lm.setState(StateInitializing)

	ctx, cancel := context.WithCancel(context.Background())
	lm.cancel = cancel
	lm.startedAt = time.Now()

	lm.wg.Add(2)
	go func() {
		defer lm.wg.Done()
		lm.hub.Run(ctx)
	}()
	go func() {
		defer lm.wg.Done()
		lm.eco.Run(ctx)
	}()

	if err := lm.loop.Start(); err != nil {
		lm.abortStart()
		lm.setError(fmt.Errorf("failed to start control loop: %w", err))
		return err
	}

	// MQTT ist optional, der Dimmer läuft auch ohne Broker
	if lm.bridge != nil {
		if err := lm.bridge.Connect(); err != nil {
			lm.logger.Warn("MQTT bridge not connected", zap.Error(err))
		}
	}

	if err := lm.restServer.Start(); err != nil {
		lm.abortStart()
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Duration("tick_interval", lm.config.Control.TickInterval),
		zap.String("storage_backend", lm.config.Storage.Backend),
		zap.Bool("mqtt_enabled", lm.bridge != nil))

	return nil
}

// abortStart undoes a partial Start: loop, MQTT, hub and eco monitor stop.
func (lm *LifecycleManager) abortStart() {
	lm.loop.Stop()
	if lm.bridge != nil {
		lm.bridge.Close()
	}
	if lm.cancel != nil {
		lm.cancel()
	}
	lm.wg.Wait()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)

		close(lm.shutdownChan)
	})

	return shutdownErr
}

// Done is closed once Shutdown has completed.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var errs []error

	// 1. Stop accepting requests
	if err := lm.restServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("rest api shutdown failed: %w", err))
	}

	// 2. Stop the control loop, the output keeps its last level
	lm.loop.Stop()

	// 3. MQTT
	if lm.bridge != nil {
		lm.bridge.Close()
	}

	// 4. Hub and eco monitor
	if lm.cancel != nil {
		lm.cancel()
	}

	done := make(chan struct{})
	go func() {
		lm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		errs = append(errs, fmt.Errorf("shutdown timeout exceeded"))
	}

	if lm.db != nil {
		lm.db.Close()
	}

	if len(errs) > 0 {
		return errs[0]
	}
	lm.logger.Info("Graceful shutdown completed")
	return nil
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	prev := lm.currentState
	if err := ValidateTransition(prev, state); err != nil && prev != state {
		lm.logger.Warn("Unexpected state transition", zap.Error(err))
	}
	lm.currentState = state
	lm.stateMu.Unlock()

	lm.broadcastStatus(prev)
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System error", zap.Error(err))

	lm.stateMu.Lock()
	prev := lm.currentState
	lm.currentState = StateError
	lm.lastError = err
	lm.stateMu.Unlock()

	lm.broadcastStatus(prev)
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	startedAt := lm.startedAt
	lm.stateMu.RUnlock()

	var uptime int64
	if !startedAt.IsZero() {
		uptime = int64(time.Since(startedAt).Seconds())
	}

	return interfaces.SystemStatus{
		State:          state.String(),
		DeviceName:     lm.deviceName,
		StorageBackend: lm.config.Storage.Backend,
		LoopRunning:    lm.loop.IsRunning(),
		MQTTConnected:  lm.bridge != nil && lm.bridge.IsConnected(),
		LiveClients:    lm.hub.GetClientCount(),
		UptimeSeconds:  uptime,
	}
}

// getStatusInternal returns typed status (for internal use)
func (lm *LifecycleManager) getStatusInternal(prev SystemState) SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	status := SystemStatus{
		State:     lm.currentState,
		Previous:  prev,
		Timestamp: time.Now().Unix(),
	}
	if lm.lastError != nil {
		status.Error = lm.lastError.Error()
	}
	return status
}

func (lm *LifecycleManager) broadcastStatus(prev SystemState) {
	status := lm.getStatusInternal(prev)

	lm.hub.Broadcast(websocket.NewSystemStatusMessage(status.State.String(), prev.String()))

	lm.listenersMu.RLock()
	defer lm.listenersMu.RUnlock()

	for _, listener := range lm.statusListeners {
		select {
		case listener <- status:
		default:
			// Channel full, skip
		}
	}
}

// SubscribeStatus subscribes to status updates
func (lm *LifecycleManager) SubscribeStatus() chan SystemStatus {
	ch := make(chan SystemStatus, 10)

	lm.listenersMu.Lock()
	lm.statusListeners = append(lm.statusListeners, ch)
	lm.listenersMu.Unlock()

	return ch
}

// UnsubscribeStatus unsubscribes from status updates
func (lm *LifecycleManager) UnsubscribeStatus(ch chan SystemStatus) {
	lm.listenersMu.Lock()
	defer lm.listenersMu.Unlock()

	for i, listener := range lm.statusListeners {
		if listener == ch {
			lm.statusListeners = append(lm.statusListeners[:i], lm.statusListeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

func (lm *LifecycleManager) Controller() *dimmer.Controller {
	return lm.controller
}

func (lm *LifecycleManager) Board() *hal.Board {
	return lm.board
}

func (lm *LifecycleManager) DeviceName() string {
	return lm.deviceName
}

// Hub returns the live state hub
func (lm *LifecycleManager) Hub() *websocket.Hub {
	return lm.hub
}
