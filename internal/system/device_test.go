package system

import (
	"testing"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeviceName(t *testing.T) {
	fixed := func() uuid.UUID { return uuid.MustParse("c0ffee12-3456-4789-8abc-def012345678") }

	assert.Equal(t, "Wemos-Dimmer-C0FFEE", deviceName(config.DeviceConfig{NamePrefix: "Wemos-Dimmer"}, fixed))
	assert.Equal(t, "Wemos-Dimmer-E3A1B2", deviceName(config.DeviceConfig{NamePrefix: "Wemos-Dimmer", ChipID: "e3a1b2"}, fixed))

	name := DeviceName(config.DeviceConfig{NamePrefix: "Lab"})
	assert.Regexp(t, `^Lab-[0-9A-F]{6}$`, name)
}
