package adapters

import (
	"context"
	"errors"
	"fmt"
	"mqtt-chat/application"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

const (
	MQTTDefaultPort              = 1883
	MQTTDefaultKeepAlive         = 60
	MQTTDefaultDisconnectQuiesce = 250
)

var (
	ErrMQTTNotConnected = fmt.Errorf("not connected")
)

// fsm events driving the connection state.
const (
	fsmEventConnect   = "connect"
	fsmEventReconnect = "reconnect"
	fsmEventConnAck   = "connack"
	fsmEventLost      = "lost"
	// fsmEventDrop is a lost connection paho is about to redial; it only
	// leaves connected so an in-flight reconnect stays connecting.
	fsmEventDrop = "drop"
)

type MQTTClientParams struct {
	ClientID      string
	AutoReconnect bool

	// DisconnectQuiesce is the time in milliseconds paho waits for pending work on disconnect.
	DisconnectQuiesce uint

	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client

	Log zerolog.Logger
}

func (m *MQTTClientParams) EnsureDefaults() {
	if m.DisconnectQuiesce == 0 {
		m.DisconnectQuiesce = MQTTDefaultDisconnectQuiesce
	}

	if m.NewClientFunc == nil {
		m.NewClientFunc = mqtt.NewClient
	}
}

// MQTTClient is an observable MQTT connection. Every field change and state
// transition is announced through On handlers, only when the value changes.
// paho callbacks arrive on paho goroutines and handlers run there too.
type MQTTClient struct {
	params MQTTClientParams

	client mqtt.Client

	hostname        string
	port            int
	keepAlive       int
	cleanSession    bool
	protocolVersion application.ProtocolVersion

	mu sync.RWMutex

	state    *fsm.FSM
	notifier *application.Notifier

	msgCount           uint64
	receivedCount      uint64
	msgCountUpdateTime atomic.Pointer[time.Time]

	log zerolog.Logger
}

func NewMQTTClient(params MQTTClientParams) *MQTTClient {
	params.EnsureDefaults()

	m := &MQTTClient{
		params:          params,
		port:            MQTTDefaultPort,
		keepAlive:       MQTTDefaultKeepAlive,
		cleanSession:    true,
		protocolVersion: application.MQTT31,
		notifier:        application.NewNotifier(params.Log),
		log:             params.Log,
	}
	m.state = newConnectionFSM(m.onStateEntered)

	t := time.Unix(0, 0)
	m.msgCountUpdateTime.Store(&t)

	return m
}

func newConnectionFSM(onEnter func(state application.ConnectionState)) *fsm.FSM {
	disconnected := application.Disconnected.String()
	connecting := application.Connecting.String()
	connected := application.Connected.String()

	return fsm.NewFSM(
		disconnected,
		fsm.Events{
			{Name: fsmEventConnect, Src: []string{disconnected}, Dst: connecting},
			{Name: fsmEventReconnect, Src: []string{disconnected, connected}, Dst: connecting},
			{Name: fsmEventConnAck, Src: []string{disconnected, connecting, connected}, Dst: connected},
			{Name: fsmEventLost, Src: []string{disconnected, connecting, connected}, Dst: disconnected},
			{Name: fsmEventDrop, Src: []string{connected}, Dst: disconnected},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				onEnter(parseConnectionState(e.Dst))
			},
		},
	)
}

func parseConnectionState(s string) application.ConnectionState {
	switch s {
	case application.Connecting.String():
		return application.Connecting
	case application.Connected.String():
		return application.Connected
	default:
		return application.Disconnected
	}
}

func (m *MQTTClient) On(event string, handler application.Handler) {
	m.notifier.On(event, handler)
}

func (m *MQTTClient) State() application.ConnectionState {
	return parseConnectionState(m.state.Current())
}

func (m *MQTTClient) Hostname() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hostname
}

func (m *MQTTClient) SetHostname(hostname string) {
	m.mu.Lock()
	if m.hostname == hostname {
		m.mu.Unlock()
		return
	}
	m.hostname = hostname
	m.mu.Unlock()

	m.notifier.Emit(application.EventHostnameChanged, hostname)
}

func (m *MQTTClient) Port() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.port
}

func (m *MQTTClient) SetPort(port int) {
	m.mu.Lock()
	if m.port == port {
		m.mu.Unlock()
		return
	}
	m.port = port
	m.mu.Unlock()

	m.notifier.Emit(application.EventPortChanged, port)
}

// KeepAlive is the keep-alive interval in seconds.
func (m *MQTTClient) KeepAlive() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keepAlive
}

func (m *MQTTClient) SetKeepAlive(seconds int) {
	m.mu.Lock()
	if m.keepAlive == seconds {
		m.mu.Unlock()
		return
	}
	m.keepAlive = seconds
	m.mu.Unlock()

	m.notifier.Emit(application.EventKeepAliveChanged, seconds)
}

func (m *MQTTClient) CleanSession() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cleanSession
}

func (m *MQTTClient) SetCleanSession(clean bool) {
	m.mu.Lock()
	if m.cleanSession == clean {
		m.mu.Unlock()
		return
	}
	m.cleanSession = clean
	m.mu.Unlock()

	m.notifier.Emit(application.EventCleanSessionChanged, clean)
}

func (m *MQTTClient) ProtocolVersion() application.ProtocolVersion {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.protocolVersion
}

// SetProtocolVersion ignores versions other than 3.1 and 3.1.1.
func (m *MQTTClient) SetProtocolVersion(version application.ProtocolVersion) {
	if !version.Valid() {
		m.log.Debug().Uint("version", uint(version)).Msg("ignoring unsupported protocol version")
		return
	}

	m.mu.Lock()
	if m.protocolVersion == version {
		m.mu.Unlock()
		return
	}
	m.protocolVersion = version
	m.mu.Unlock()

	m.notifier.Emit(application.EventProtocolVersionChanged, version)
}

// ConnectToHost starts an asynchronous connection attempt. It does nothing
// without a hostname or while a session is already connecting or connected.
func (m *MQTTClient) ConnectToHost() {
	if m.Hostname() == "" {
		m.log.Debug().Msg("no hostname, skipping connect")
		return
	}

	if err := m.state.Event(context.Background(), fsmEventConnect); err != nil {
		m.log.Debug().Str("state", m.state.Current()).Msg("connection already in progress")
		return
	}

	m.mu.Lock()
	m.client = m.newMqttClient()
	client := m.client
	m.mu.Unlock()

	token := client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			m.log.Warn().Err(err).Msg("connect failed")
			m.OnDisconnect()
		}
	}()
}

// DisconnectFromHost tears the session down. The Disconnected transition is
// delivered through OnDisconnect since paho skips the connection lost handler
// for requested disconnects. paho is always told to stop, a reconnect may be
// in flight whatever the state says.
func (m *MQTTClient) DisconnectFromHost() {
	client := m.currentClient()
	if client == nil {
		return
	}

	client.Disconnect(m.params.DisconnectQuiesce)
	m.OnDisconnect()
}

// Subscribe is ignored unless connected.
func (m *MQTTClient) Subscribe(topicFilter string) {
	if m.State() != application.Connected {
		m.log.Debug().Str("topic", topicFilter).Msg("not connected, skipping subscribe")
		return
	}

	token := m.currentClient().Subscribe(topicFilter, 0, m.OnMessage)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			m.log.Warn().Err(err).Str("topic", topicFilter).Msg("subscribe failed")
			return
		}
		m.log.Info().Str("topic", topicFilter).Msg("subscribed")
	}()
}

// Publish sends payload without waiting for delivery; the outcome is reported to OnPublish.
func (m *MQTTClient) Publish(topic string, qos byte, payload string) error {
	if m.State() != application.Connected {
		return ErrMQTTNotConnected
	}

	token := m.currentClient().Publish(topic, qos, false, []byte(payload))
	go func() {
		<-token.Done()
		m.OnPublish(topic, token.Error())
	}()
	return nil
}

func (m *MQTTClient) Status() application.MQTTStatus {
	return application.MQTTStatus{
		MessageCount:      atomic.LoadUint64(&m.msgCount),
		ReceivedCount:     atomic.LoadUint64(&m.receivedCount),
		LastTimePublished: *m.msgCountUpdateTime.Load(),
		Connected:         m.State() == application.Connected,
	}
}

func (m *MQTTClient) OnConnect(client mqtt.Client) {
	m.log.Info().Msg("connected")
	m.transition(fsmEventConnAck)
	m.notifier.Emit(application.EventConnected, nil)
}

func (m *MQTTClient) OnConnectionLost(client mqtt.Client, err error) {
	m.log.Info().Msgf("connect lost: %v", err)
	if !m.params.AutoReconnect {
		m.OnDisconnect()
		return
	}

	if m.transition(fsmEventDrop) {
		m.notifier.Emit(application.EventDisconnected, nil)
	}
}

func (m *MQTTClient) OnReconnecting(client mqtt.Client, options *mqtt.ClientOptions) {
	m.log.Info().Msg("reconnecting")
	m.transition(fsmEventReconnect)
}

// OnDisconnect emits disconnected only when the session was not already down.
func (m *MQTTClient) OnDisconnect() {
	if !m.transition(fsmEventLost) {
		return
	}
	m.log.Info().Msg("disconnected")
	m.notifier.Emit(application.EventDisconnected, nil)
}

// OnMessage drops payloads that are not valid UTF-8 text.
func (m *MQTTClient) OnMessage(client mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	if !utf8.Valid(payload) {
		m.log.Warn().Str("topic", msg.Topic()).Int("size", len(payload)).Msg("dropping non-text message")
		return
	}

	atomic.AddUint64(&m.receivedCount, 1)
	m.notifier.Emit(application.EventMessageReceived, string(payload))
}

func (m *MQTTClient) OnPublish(topic string, err error) {
	if err != nil {
		m.log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
		return
	}

	t := time.Now()
	m.msgCountUpdateTime.Store(&t)
	atomic.AddUint64(&m.msgCount, 1)
	m.log.Debug().Str("topic", topic).Msg("message sent")
}

func (m *MQTTClient) onStateEntered(state application.ConnectionState) {
	m.notifier.Emit(application.EventStateChanged, state)
}

// transition reports whether the state changed.
func (m *MQTTClient) transition(event string) bool {
	err := m.state.Event(context.Background(), event)
	if err == nil {
		return true
	}

	var noTransition fsm.NoTransitionError
	var invalidEvent fsm.InvalidEventError
	if errors.As(err, &noTransition) || errors.As(err, &invalidEvent) {
		return false
	}
	m.log.Warn().Err(err).Str("event", event).Msg("state transition failed")
	return false
}

func (m *MQTTClient) currentClient() mqtt.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// newMqttClient must be called with m.mu held.
func (m *MQTTClient) newMqttClient() mqtt.Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", m.hostname, m.port))
	opts.SetClientID(m.params.ClientID)
	opts.SetKeepAlive(time.Duration(m.keepAlive) * time.Second)
	opts.SetCleanSession(m.cleanSession)
	opts.SetProtocolVersion(uint(m.protocolVersion))
	opts.SetAutoReconnect(m.params.AutoReconnect)

	opts.SetDefaultPublishHandler(m.OnMessage)
	opts.SetOnConnectHandler(m.OnConnect)
	opts.SetConnectionLostHandler(m.OnConnectionLost)
	opts.SetReconnectingHandler(m.OnReconnecting)

	return m.params.NewClientFunc(opts)
}

var _ application.MQTTConnection = &MQTTClient{}
