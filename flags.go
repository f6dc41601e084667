package main

import "github.com/urfave/cli/v2"

var FlagLogLevel = &cli.StringFlag{
	Name:     "log-level",
	EnvVars:  []string{"LOG_LEVEL"},
	Value:    "info",
	Required: false,
}

var FlagLogWriter = &cli.StringFlag{
	Name:     "log-writer",
	Usage:    "one of: [console, json]",
	EnvVars:  []string{"LOG_WRITER"},
	Value:    "console",
	Required: false,
}

var FlagLogFile = &cli.StringFlag{
	Name:     "log-file",
	Usage:    "also write diagnostics to this file, rotated",
	EnvVars:  []string{"LOG_FILE"},
	Required: false,
}

var FlagConfig = &cli.StringFlag{
	Name:     "config",
	Usage:    "optional yaml config file, flags take precedence",
	EnvVars:  []string{"CHAT_CONFIG"},
	Required: false,
}

var FlagNoColor = &cli.BoolFlag{
	Name:     "no-color",
	EnvVars:  []string{"NO_COLOR"},
	Required: false,
}

var FlagMQTTHost = &cli.StringFlag{
	Name:     "mqtt-host",
	EnvVars:  []string{"MQTT_HOST"},
	Value:    "mqtt.eclipseprojects.io",
	Required: false,
}

var FlagMQTTPort = &cli.IntFlag{
	Name:     "mqtt-port",
	EnvVars:  []string{"MQTT_PORT"},
	Value:    1883,
	Required: false,
}

var FlagMQTTKeepAlive = &cli.IntFlag{
	Name:     "mqtt-keep-alive",
	Usage:    "keep alive interval in seconds",
	EnvVars:  []string{"MQTT_KEEP_ALIVE"},
	Value:    60,
	Required: false,
}

var FlagMQTTCleanSession = &cli.BoolFlag{
	Name:     "mqtt-clean-session",
	EnvVars:  []string{"MQTT_CLEAN_SESSION"},
	Value:    true,
	Required: false,
}

var FlagMQTTProtocolVersion = &cli.StringFlag{
	Name:     "mqtt-protocol-version",
	Usage:    "one of: [3.1, 3.1.1]",
	EnvVars:  []string{"MQTT_PROTOCOL_VERSION"},
	Value:    "3.1",
	Required: false,
}

var FlagMQTTAutoReconnect = &cli.BoolFlag{
	Name:     "mqtt-auto-reconnect",
	EnvVars:  []string{"MQTT_AUTO_RECONNECT"},
	Value:    false,
	Required: false,
}

var FlagMQTTClientID = &cli.StringFlag{
	Name:     "mqtt-client-id",
	Usage:    "random when empty",
	EnvVars:  []string{"MQTT_CLIENT_ID"},
	Required: false,
}

var FlagChatTopic = &cli.StringFlag{
	Name:     "chat-topic",
	Usage:    "messages are published here and read from <topic>/#",
	EnvVars:  []string{"CHAT_TOPIC"},
	Value:    "chat_lefteris_special_lala",
	Required: false,
}
