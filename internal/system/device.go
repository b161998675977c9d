package system

import (
	"fmt"
	"strings"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/google/uuid"
)

const deviceIDLength = 6

// DeviceName is <prefix>-<ID>. Without a configured chip ID a random one is
// drawn from a fresh UUID, so the name is stable only for the process
// lifetime.
func DeviceName(cfg config.DeviceConfig) string {
	return deviceName(cfg, uuid.New)
}

func deviceName(cfg config.DeviceConfig, newID func() uuid.UUID) string {
	id := strings.TrimSpace(cfg.ChipID)
	if id == "" {
		id = strings.ReplaceAll(newID().String(), "-", "")[:deviceIDLength]
	}
	return fmt.Sprintf("%s-%s", cfg.NamePrefix, strings.ToUpper(id))
}
