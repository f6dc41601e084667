package application

import (
	"fmt"
	"time"
)

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// ProtocolVersion values match the paho protocol version numbers.
type ProtocolVersion uint

const (
	MQTT31  ProtocolVersion = 3
	MQTT311 ProtocolVersion = 4
)

func (v ProtocolVersion) Valid() bool {
	return v == MQTT31 || v == MQTT311
}

func (v ProtocolVersion) String() string {
	switch v {
	case MQTT31:
		return "3.1"
	case MQTT311:
		return "3.1.1"
	default:
		return fmt.Sprintf("unknown(%d)", uint(v))
	}
}

func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	switch s {
	case "3.1", "3":
		return MQTT31, nil
	case "3.1.1", "4":
		return MQTT311, nil
	default:
		return 0, fmt.Errorf("invalid mqtt protocol version: %q", s)
	}
}

// Events emitted by MQTTConnection.
const (
	EventStateChanged           = "stateChanged"
	EventHostnameChanged        = "hostnameChanged"
	EventPortChanged            = "portChanged"
	EventKeepAliveChanged       = "keepAliveChanged"
	EventCleanSessionChanged    = "cleanSessionChanged"
	EventProtocolVersionChanged = "protocolVersionChanged"
	EventConnected              = "connected"
	EventDisconnected           = "disconnected"
	EventMessageReceived        = "messageReceived"
)

type MQTTStatus struct {
	MessageCount      uint64
	ReceivedCount     uint64
	LastTimePublished time.Time
	Connected         bool
}

type MQTTConnection interface {
	SetHostname(hostname string)
	SetPort(port int)
	SetKeepAlive(seconds int)
	SetCleanSession(clean bool)
	SetProtocolVersion(version ProtocolVersion)

	Hostname() string
	Port() int
	KeepAlive() int
	CleanSession() bool
	ProtocolVersion() ProtocolVersion
	State() ConnectionState

	ConnectToHost()
	DisconnectFromHost()
	Subscribe(topicFilter string)
	Publish(topic string, qos byte, payload string) error

	On(event string, handler Handler)
	Status() MQTTStatus
}
