package interfaces

import (
	"context"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"github.com/KevinKickass/OpenDimmer/internal/hal"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State          string `json:"state"`
	DeviceName     string `json:"device_name"`
	StorageBackend string `json:"storage_backend"`
	LoopRunning    bool   `json:"loop_running"`
	MQTTConnected  bool   `json:"mqtt_connected"`
	LiveClients    int    `json:"live_clients"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

type LifecycleManager interface {
	Config() *config.Config
	Controller() *dimmer.Controller
	Board() *hal.Board
	DeviceName() string
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
