package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	connectTimeout       = 10 * time.Second
	connectRetryInterval = 10 * time.Second
)

// Commander is the part of the controller the bridge drives.
type Commander interface {
	SetCommandedBrightness(value int)
	Snapshot() dimmer.Snapshot
}

// Bridge exposes the dimmer as a Home Assistant light. Commands set the
// commanded brightness only; the mode stays whatever the configuration says.
type Bridge struct {
	cfg    config.MQTTConfig
	entity Entity
	ctrl   Commander
	logger *zap.Logger

	mu     sync.Mutex
	client paho.Client
	// last payload sent to the state topic, used to publish only on changes
	published string
}

func NewBridge(cfg config.MQTTConfig, deviceName string, ctrl Commander, logger *zap.Logger) *Bridge {
	return &Bridge{
		cfg: cfg,
		entity: Entity{
			Name:            deviceName,
			TopicPrefix:     cfg.TopicPrefix,
			DiscoveryPrefix: cfg.DiscoveryPrefix,
		},
		ctrl:   ctrl,
		logger: logger,
	}
}

func (b *Bridge) Entity() Entity {
	return b.entity
}

func (b *Bridge) ClientOptions() *paho.ClientOptions {
	clientID := b.cfg.ClientID
	if clientID == "" {
		clientID = b.entity.EntityID()
	}

	return paho.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(clientID).
		SetUsername(b.cfg.Username).
		SetPassword(b.cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetOnConnectHandler(func(client paho.Client) {
			if err := b.Setup(client); err != nil {
				b.logger.Error("MQTT setup failed", zap.Error(err))
			}
		}).
		SetConnectionLostHandler(func(client paho.Client, err error) {
			b.logger.Warn("MQTT connection lost", zap.Error(err))
		}).
		SetReconnectingHandler(func(client paho.Client, opts *paho.ClientOptions) {
			b.logger.Info("MQTT reconnecting")
		})
}

// Connect dials the broker. Discovery and the command subscription happen in
// the on-connect handler, so they are repeated after every reconnect. A
// timeout is reported but paho keeps retrying in the background.
func (b *Bridge) Connect() error {
	client := paho.NewClient(b.ClientOptions())

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()

	t := client.Connect()
	if !t.WaitTimeout(connectTimeout) {
		return fmt.Errorf("MQTT connect to %s timed out, retrying in background", b.cfg.Broker)
	}
	if t.Error() != nil {
		return fmt.Errorf("MQTT connection error: %w", t.Error())
	}

	b.logger.Info("MQTT connected",
		zap.String("broker", b.cfg.Broker),
		zap.String("entity", b.entity.EntityID()))
	return nil
}

// Setup publishes the discovery config, subscribes to the command topic and
// publishes the current state.
func (b *Bridge) Setup(client paho.Client) error {
	b.mu.Lock()
	b.client = client
	b.published = ""
	b.mu.Unlock()

	discovery, err := b.entity.ConfigJSON()
	if err != nil {
		return fmt.Errorf("error marshalling light configuration: %w", err)
	}
	if t := client.Publish(b.entity.ConfigTopic(), 0, true, discovery); t.Wait() && t.Error() != nil {
		return fmt.Errorf("MQTT publish failed: %w", t.Error())
	}

	b.logger.Info("Registered with Home Assistant", zap.String("topic", b.entity.ConfigTopic()))

	if t := client.Subscribe(b.entity.CommandTopic(), 0, func(client paho.Client, msg paho.Message) {
		if err := b.HandleCommand(msg.Payload()); err != nil {
			b.logger.Warn("Ignoring MQTT command",
				zap.String("topic", msg.Topic()),
				zap.Error(err))
		}
	}); t.Wait() && t.Error() != nil {
		return fmt.Errorf("MQTT subscribe failed: %w", t.Error())
	}

	b.publishState(b.ctrl.Snapshot().Brightness.Target)
	return nil
}

// HandleCommand applies a JSON light command. ON without brightness means
// full brightness; OFF means zero.
func (b *Bridge) HandleCommand(payload []byte) error {
	var cmd lightState
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("MQTT deserialization failed: %w", err)
	}

	var level int
	switch strings.ToUpper(cmd.State) {
	case stateOff:
		level = settings.MinLevel
	case stateOn, "":
		if cmd.Brightness == nil {
			if cmd.State == "" {
				return errors.New("command carries neither state nor brightness")
			}
			level = settings.MaxLevel
		} else {
			level = ToLevel(*cmd.Brightness)
		}
	default:
		return fmt.Errorf("unknown state %q", cmd.State)
	}

	b.logger.Info("MQTT brightness command",
		zap.String("state", cmd.State),
		zap.Int("level", level))

	b.ctrl.SetCommandedBrightness(level)
	return nil
}

// BrightnessChanged publishes the target whenever its Home Assistant view
// changes. The fade steps in between are not published.
func (b *Bridge) BrightnessChanged(state dimmer.BrightnessState) {
	b.publishState(state.Target)
}

func (b *Bridge) ConfigurationChanged(cfg settings.Configuration) {}

func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil && b.client.IsConnected()
}

// Close disconnects from the broker. Later state changes are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	client := b.client
	b.client = nil
	b.mu.Unlock()

	if client == nil {
		return
	}
	client.Disconnect(250)
	b.logger.Info("MQTT disconnected")
}

// publishState never blocks the caller, which is usually the tick loop.
func (b *Bridge) publishState(level int) {
	payload, err := json.Marshal(stateFor(level))
	if err != nil {
		b.logger.Error("Error marshalling light state", zap.Error(err))
		return
	}

	b.mu.Lock()
	client := b.client
	if client == nil || string(payload) == b.published {
		b.mu.Unlock()
		return
	}
	b.published = string(payload)
	b.mu.Unlock()

	topic := b.entity.StateTopic()
	t := client.Publish(topic, 0, true, payload)
	go func() {
		<-t.Done()
		if t.Error() != nil {
			b.logger.Warn("MQTT state publish failed",
				zap.String("topic", topic),
				zap.Error(t.Error()))
		}
	}()
}
