package application

import (
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type MockConnection struct {
	mock.Mock

	notifier *Notifier

	hostname string
	state    ConnectionState
}

func NewMockConnection() *MockConnection {
	return &MockConnection{notifier: NewNotifier(zerolog.Nop())}
}

func (m *MockConnection) SetHostname(hostname string)                { m.hostname = hostname }
func (m *MockConnection) SetPort(port int)                           {}
func (m *MockConnection) SetKeepAlive(seconds int)                   {}
func (m *MockConnection) SetCleanSession(clean bool)                 {}
func (m *MockConnection) SetProtocolVersion(version ProtocolVersion) {}

func (m *MockConnection) Hostname() string                 { return m.hostname }
func (m *MockConnection) Port() int                        { return 1883 }
func (m *MockConnection) KeepAlive() int                   { return 60 }
func (m *MockConnection) CleanSession() bool               { return true }
func (m *MockConnection) ProtocolVersion() ProtocolVersion { return MQTT31 }
func (m *MockConnection) State() ConnectionState           { return m.state }

func (m *MockConnection) ConnectToHost() {
	m.Called()
}

func (m *MockConnection) DisconnectFromHost() {
	m.Called()
}

func (m *MockConnection) Subscribe(topicFilter string) {
	m.Called(topicFilter)
}

func (m *MockConnection) Publish(topic string, qos byte, payload string) error {
	args := m.Called(topic, qos, payload)
	return args.Error(0)
}

// On registers an observer; expectations go through m.Mock.On.
func (m *MockConnection) On(event string, handler Handler) {
	m.notifier.On(event, handler)
}

func (m *MockConnection) emit(event string, value any) {
	m.notifier.Emit(event, value)
}

func (m *MockConnection) Status() MQTTStatus {
	return MQTTStatus{Connected: m.state == Connected}
}

// setState mimics the connection callbacks.
func (m *MockConnection) setState(state ConnectionState) {
	if m.state == state {
		return
	}
	m.state = state
	m.emit(EventStateChanged, state)
}

var _ MQTTConnection = &MockConnection{}

type fakeSurface struct {
	transcript []string
	input      string
	cleared    int
	states     []ConnectionState
}

func (f *fakeSurface) AppendTranscript(text string)    { f.transcript = append(f.transcript, text) }
func (f *fakeSurface) InputText() string               { return f.input }
func (f *fakeSurface) ClearInput()                     { f.input = ""; f.cleared++ }
func (f *fakeSurface) ShowState(state ConnectionState) { f.states = append(f.states, state) }

var _ Surface = &fakeSurface{}

func syncDispatcher() Dispatcher {
	return DispatchFunc(func(fn func()) { fn() })
}
