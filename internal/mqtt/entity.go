package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
)

// HomeAssistantMaxBrightness is the default brightness scale of a Home
// Assistant JSON-schema light.
const HomeAssistantMaxBrightness = 255

// Entity names the light on the broker.
type Entity struct {
	Name            string
	TopicPrefix     string
	DiscoveryPrefix string
}

func (e Entity) EntityID() string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(e.Name))
}

func (e Entity) UniqueID() string {
	return fmt.Sprintf("dimmer_%v", e.EntityID())
}

func (e Entity) CommandTopic() string {
	return fmt.Sprintf("%v/light/%v/set", e.TopicPrefix, e.EntityID())
}

func (e Entity) StateTopic() string {
	return fmt.Sprintf("%v/light/%v/state", e.TopicPrefix, e.EntityID())
}

func (e Entity) ConfigTopic() string {
	return fmt.Sprintf("%v/light/%v/config", e.DiscoveryPrefix, e.EntityID())
}

type configJSON struct {
	Name         string `json:"name"`
	UniqueID     string `json:"unique_id"`
	CommandTopic string `json:"command_topic"`
	StateTopic   string `json:"state_topic"`
	Schema       string `json:"schema"`
	Brightness   bool   `json:"brightness"`
}

// ConfigJSON is the retained discovery payload.
func (e Entity) ConfigJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		Name:         e.Name,
		UniqueID:     e.UniqueID(),
		CommandTopic: e.CommandTopic(),
		StateTopic:   e.StateTopic(),
		Schema:       "json",
		Brightness:   true,
	})
}

// lightState is both the command and the state payload.
type lightState struct {
	State      string `json:"state,omitempty"`
	Brightness *int   `json:"brightness,omitempty"`
}

const (
	stateOn  = "ON"
	stateOff = "OFF"
)

// ToLevel maps a 0..255 Home Assistant brightness onto the output range.
func ToLevel(brightness int) int {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > HomeAssistantMaxBrightness {
		brightness = HomeAssistantMaxBrightness
	}
	return (brightness*settings.MaxLevel + HomeAssistantMaxBrightness/2) / HomeAssistantMaxBrightness
}

// FromLevel maps an output level back onto 0..255.
func FromLevel(level int) int {
	level = settings.ClampLevel(level)
	return (level*HomeAssistantMaxBrightness + settings.MaxLevel/2) / settings.MaxLevel
}

func stateFor(level int) lightState {
	brightness := FromLevel(level)
	if brightness == 0 {
		return lightState{State: stateOff}
	}
	return lightState{State: stateOn, Brightness: &brightness}
}
