package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool {
	return true
}

func (t *fakeToken) WaitTimeout(time.Duration) bool {
	return true
}

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *fakeToken) Error() error {
	return t.err
}

type publication struct {
	topic    string
	retained bool
	payload  string
}

// fakeClient implements the few paho.Client methods the bridge calls.
type fakeClient struct {
	paho.Client

	mu           sync.Mutex
	publications []publication
	handlers     map[string]paho.MessageHandler
	subscribeErr error
	disconnected bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]paho.MessageHandler)}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publications = append(c.publications, publication{topic: topic, retained: retained, payload: string(payload.([]byte))})
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	if c.subscribeErr != nil {
		return &fakeToken{err: c.subscribeErr}
	}
	c.handlers[topic] = callback
	return &fakeToken{}
}

func (c *fakeClient) IsConnected() bool {
	return !c.disconnected
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func (c *fakeClient) sent(topic string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, p := range c.publications {
		if p.topic == topic {
			out = append(out, p.payload)
		}
	}
	return out
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

type fakeCommander struct {
	commands []int
	snapshot dimmer.Snapshot
}

func (f *fakeCommander) SetCommandedBrightness(value int) { f.commands = append(f.commands, value) }
func (f *fakeCommander) Snapshot() dimmer.Snapshot        { return f.snapshot }

func newTestBridge() (*Bridge, *fakeCommander) {
	ctrl := &fakeCommander{}
	cfg := config.MQTTConfig{
		Broker:          "tcp://localhost:1883",
		TopicPrefix:     "dimmer",
		DiscoveryPrefix: "homeassistant",
	}
	return NewBridge(cfg, "Wemos-Dimmer-ABC123", ctrl, zap.NewNop()), ctrl
}

func TestEntity_Topics(t *testing.T) {
	b, _ := newTestBridge()
	e := b.Entity()

	assert.Equal(t, "wemos_dimmer_abc123", e.EntityID())
	assert.Equal(t, "dimmer/light/wemos_dimmer_abc123/set", e.CommandTopic())
	assert.Equal(t, "dimmer/light/wemos_dimmer_abc123/state", e.StateTopic())
	assert.Equal(t, "homeassistant/light/wemos_dimmer_abc123/config", e.ConfigTopic())

	cfg, err := e.ConfigJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Wemos-Dimmer-ABC123",
		"unique_id": "dimmer_wemos_dimmer_abc123",
		"command_topic": "dimmer/light/wemos_dimmer_abc123/set",
		"state_topic": "dimmer/light/wemos_dimmer_abc123/state",
		"schema": "json",
		"brightness": true
	}`, string(cfg))
}

func TestBrightnessScale(t *testing.T) {
	assert.Equal(t, 0, ToLevel(0))
	assert.Equal(t, 1023, ToLevel(255))
	assert.Equal(t, 514, ToLevel(128))
	assert.Equal(t, 1023, ToLevel(400))
	assert.Equal(t, 0, ToLevel(-1))

	assert.Equal(t, 255, FromLevel(1023))
	assert.Equal(t, 0, FromLevel(0))
	assert.Equal(t, 0, FromLevel(1))

	for b := 0; b <= HomeAssistantMaxBrightness; b++ {
		assert.Equal(t, b, FromLevel(ToLevel(b)))
	}
}

func TestBridge_SetupRegistersAndSubscribes(t *testing.T) {
	b, _ := newTestBridge()
	client := newFakeClient()

	require.NoError(t, b.Setup(client))

	client.mu.Lock()
	first := client.publications[0]
	client.mu.Unlock()
	assert.Equal(t, b.Entity().ConfigTopic(), first.topic)
	assert.True(t, first.retained)

	assert.Contains(t, client.handlers, b.Entity().CommandTopic())
	assert.Equal(t, []string{`{"state":"OFF"}`}, client.sent(b.Entity().StateTopic()))
	assert.True(t, b.IsConnected())
}

func TestBridge_SetupSubscribeFailure(t *testing.T) {
	b, _ := newTestBridge()
	client := newFakeClient()
	client.subscribeErr = errors.New("not authorized")

	assert.ErrorContains(t, b.Setup(client), "not authorized")
}

func TestBridge_Commands(t *testing.T) {
	b, ctrl := newTestBridge()
	client := newFakeClient()
	require.NoError(t, b.Setup(client))

	handler := client.handlers[b.Entity().CommandTopic()]
	send := func(payload string) {
		handler(client, &fakeMessage{topic: b.Entity().CommandTopic(), payload: []byte(payload)})
	}

	send(`{"state":"ON","brightness":128}`)
	send(`{"state":"ON"}`)
	send(`{"state":"OFF","brightness":200}`)
	send(`{"brightness":255}`)
	send(`{"state":"on","brightness":0}`)

	assert.Equal(t, []int{514, 1023, 0, 1023, 0}, ctrl.commands)
}

func TestBridge_RejectsBadCommands(t *testing.T) {
	b, ctrl := newTestBridge()

	assert.Error(t, b.HandleCommand([]byte(`not json`)))
	assert.Error(t, b.HandleCommand([]byte(`{"state":"DIM"}`)))
	assert.Error(t, b.HandleCommand([]byte(`{}`)))
	assert.Empty(t, ctrl.commands)
}

func TestBridge_PublishesOnlyOnChange(t *testing.T) {
	b, _ := newTestBridge()

	// not connected yet: dropped
	b.BrightnessChanged(dimmer.BrightnessState{Current: 20, Target: 1023})

	client := newFakeClient()
	require.NoError(t, b.Setup(client))

	b.BrightnessChanged(dimmer.BrightnessState{Current: 20, Target: 1023})
	b.BrightnessChanged(dimmer.BrightnessState{Current: 40, Target: 1023})
	b.BrightnessChanged(dimmer.BrightnessState{Current: 1023, Target: 1023})
	b.BrightnessChanged(dimmer.BrightnessState{Current: 1003, Target: 0})

	assert.Equal(t, []string{
		`{"state":"OFF"}`,
		`{"state":"ON","brightness":255}`,
		`{"state":"OFF"}`,
	}, client.sent(b.Entity().StateTopic()))
}

func TestBridge_Close(t *testing.T) {
	b, _ := newTestBridge()
	b.Close()

	client := newFakeClient()
	require.NoError(t, b.Setup(client))
	b.Close()

	assert.True(t, client.disconnected)
	assert.False(t, b.IsConnected())

	b.BrightnessChanged(dimmer.BrightnessState{Target: 500})
	assert.Len(t, client.sent(b.Entity().StateTopic()), 1)
}
