package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mqtt-chat/application"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MQTT MQTTConfig `yaml:"mqtt"`
	Chat ChatConfig `yaml:"chat"`
}

type MQTTConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	KeepAlive       int    `yaml:"keep_alive"`
	CleanSession    bool   `yaml:"clean_session"`
	ProtocolVersion string `yaml:"protocol_version"`
	AutoReconnect   bool   `yaml:"auto_reconnect"`
	ClientID        string `yaml:"client_id"`
}

type ChatConfig struct {
	Topic string `yaml:"topic"`
}

func DefaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Host:            application.DefaultHostname,
			Port:            1883,
			KeepAlive:       60,
			CleanSession:    true,
			ProtocolVersion: application.MQTT31.String(),
		},
		Chat: ChatConfig{
			Topic: application.DefaultPublishTopic,
		},
	}
}

// LoadConfigFile reads path over the defaults. Keys missing from the file keep their default.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		return fmt.Errorf("invalid mqtt port: %d", c.MQTT.Port)
	}
	if c.MQTT.KeepAlive < 0 {
		return fmt.Errorf("invalid mqtt keep alive: %d", c.MQTT.KeepAlive)
	}
	if _, err := application.ParseProtocolVersion(c.MQTT.ProtocolVersion); err != nil {
		return err
	}
	if c.Chat.Topic == "" || strings.ContainsAny(c.Chat.Topic, "#+") {
		return fmt.Errorf("invalid chat topic: %q", c.Chat.Topic)
	}
	return nil
}

// loadConfig merges defaults, the optional config file and the flags set on the command line.
func loadConfig(ctx *cli.Context) (*Config, error) {
	cfg := DefaultConfig()
	if path := ctx.String(FlagConfig.Name); path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet(FlagMQTTHost.Name) {
		cfg.MQTT.Host = ctx.String(FlagMQTTHost.Name)
	}
	if ctx.IsSet(FlagMQTTPort.Name) {
		cfg.MQTT.Port = ctx.Int(FlagMQTTPort.Name)
	}
	if ctx.IsSet(FlagMQTTKeepAlive.Name) {
		cfg.MQTT.KeepAlive = ctx.Int(FlagMQTTKeepAlive.Name)
	}
	if ctx.IsSet(FlagMQTTCleanSession.Name) {
		cfg.MQTT.CleanSession = ctx.Bool(FlagMQTTCleanSession.Name)
	}
	if ctx.IsSet(FlagMQTTProtocolVersion.Name) {
		cfg.MQTT.ProtocolVersion = ctx.String(FlagMQTTProtocolVersion.Name)
	}
	if ctx.IsSet(FlagMQTTAutoReconnect.Name) {
		cfg.MQTT.AutoReconnect = ctx.Bool(FlagMQTTAutoReconnect.Name)
	}
	if ctx.IsSet(FlagMQTTClientID.Name) {
		cfg.MQTT.ClientID = ctx.String(FlagMQTTClientID.Name)
	}
	if ctx.IsSet(FlagChatTopic.Name) {
		cfg.Chat.Topic = ctx.String(FlagChatTopic.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.MQTT.ClientID == "" {
		id, err := randomClientID()
		if err != nil {
			return nil, err
		}
		cfg.MQTT.ClientID = id
	}
	return cfg, nil
}

// randomClientID stays within the 23 characters MQTT 3.1 allows.
func randomClientID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating client id: %w", err)
	}
	return "mqtt-chat-" + hex.EncodeToString(b), nil
}
