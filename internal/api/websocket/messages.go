package websocket

import (
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeSnapshot        MessageType = "snapshot"
	MessageTypeBrightnessState MessageType = "brightness_state"
	MessageTypeConfigChanged   MessageType = "config_changed"
	MessageTypeEcoIdle         MessageType = "eco_idle"
	MessageTypeSystemStatus    MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type BrightnessData struct {
	Current int  `json:"current"`
	Target  int  `json:"target"`
	Settled bool `json:"settled"`
}

type ConfigData struct {
	Mode                string `json:"mode"`
	InvertLogic         bool   `json:"invert_logic"`
	SensorMaxBrightness int    `json:"sensor_max_brightness"`
	Language            string `json:"language"`
}

type EcoIdleData struct {
	IdleSeconds float64 `json:"idle_seconds"`
	Threshold   float64 `json:"threshold_seconds"`
}

type SystemStatusData struct {
	State    string `json:"state"`
	Previous string `json:"previous_state,omitempty"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewConfigData(cfg settings.Configuration) ConfigData {
	return ConfigData{
		Mode:                cfg.Mode.String(),
		InvertLogic:         cfg.InvertLogic,
		SensorMaxBrightness: cfg.SensorMaxBrightness,
		Language:            cfg.Language.String(),
	}
}

func NewBrightnessMessage(state dimmer.BrightnessState) Message {
	return NewMessage(MessageTypeBrightnessState, BrightnessData{
		Current: state.Current,
		Target:  state.Target,
		Settled: state.Settled(),
	})
}

func NewConfigMessage(cfg settings.Configuration) Message {
	return NewMessage(MessageTypeConfigChanged, NewConfigData(cfg))
}

func NewSnapshotMessage(snap dimmer.Snapshot) Message {
	return NewMessage(MessageTypeSnapshot, snap)
}

func NewEcoIdleMessage(idle, threshold time.Duration) Message {
	return NewMessage(MessageTypeEcoIdle, EcoIdleData{
		IdleSeconds: idle.Seconds(),
		Threshold:   threshold.Seconds(),
	})
}

func NewSystemStatusMessage(state, previous string) Message {
	return NewMessage(MessageTypeSystemStatus, SystemStatusData{
		State:    state,
		Previous: previous,
	})
}
