package main

import (
	"context"
	"fmt"
	"io"
	"mqtt-chat/adapters"
	"mqtt-chat/application"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Flags = []cli.Flag{
	FlagLogLevel,
	FlagLogWriter,
	FlagLogFile,
	FlagConfig,
	FlagNoColor,
	FlagMQTTHost,
	FlagMQTTPort,
	FlagMQTTKeepAlive,
	FlagMQTTCleanSession,
	FlagMQTTProtocolVersion,
	FlagMQTTAutoReconnect,
	FlagMQTTClientID,
	FlagChatTopic,
}

func main() {
	var logger zerolog.Logger

	app := cli.App{
		Name:    "mqtt-chat",
		Usage:   "chat over an mqtt topic",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			var err error
			logger, err = newLogger(ctx)
			return err
		},
		Action: func(ctx *cli.Context) error {
			logger.Info().Msg("chat starting...")

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			appCtx, cancel := context.WithCancel(logger.WithContext(context.Background()))
			defer cancel()
			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

				select {
				case <-c:
					logger.Warn().Msg("interrupt signal received")
					cancel()
				case <-appCtx.Done():
				}
			}()

			adapters.SetPahoLoggers(logger.With().Str("module", "paho").Logger())

			// validated by loadConfig
			protocolVersion, _ := application.ParseProtocolVersion(cfg.MQTT.ProtocolVersion)

			mqttClient := adapters.NewMQTTClient(adapters.MQTTClientParams{
				ClientID:      cfg.MQTT.ClientID,
				AutoReconnect: cfg.MQTT.AutoReconnect,
				Log:           logger.With().Str("module", "mqtt-client").Logger(),
			})
			mqttClient.SetPort(cfg.MQTT.Port)
			mqttClient.SetKeepAlive(cfg.MQTT.KeepAlive)
			mqttClient.SetCleanSession(cfg.MQTT.CleanSession)
			mqttClient.SetProtocolVersion(protocolVersion)

			queue := application.NewUIQueue(application.DefaultDispatchQueueSize)

			terminal, err := adapters.NewTerminal(adapters.TerminalParams{
				In:         os.Stdin,
				Out:        os.Stdout,
				Dispatcher: queue,
				Status:     mqttClient.Status,
				NoColor:    ctx.Bool(FlagNoColor.Name),
				Log:        logger.With().Str("module", "terminal").Logger(),
			})
			if err != nil {
				return err
			}

			chat, err := application.NewChatController(application.ChatControllerParams{
				Connection:   mqttClient,
				Surface:      terminal,
				Dispatcher:   queue,
				Hostname:     cfg.MQTT.Host,
				PublishTopic: cfg.Chat.Topic,
				Log:          logger.With().Str("module", "chat").Logger(),
			})
			if err != nil {
				return err
			}

			terminal.OnSend(chat.Send)
			terminal.OnQuit(cancel)

			go func() {
				if err := terminal.ReadLoop(); err != nil {
					logger.Err(err).Msg("reading input failed")
				}
			}()

			logger.Info().
				Str("topic", cfg.Chat.Topic).
				Str("protocol_version", protocolVersion.String()).
				Msg("chat started")

			g := errgroup.Group{}
			g.Go(func() error {
				return queue.Run(appCtx)
			})
			g.Go(func() error {
				return chat.Run(appCtx)
			})
			if err := g.Wait(); err != nil {
				return err
			}

			logger.Info().Msg("chat terminating...")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("chat terminated")
		os.Exit(1)
	}
}

func newLogger(ctx *cli.Context) (zerolog.Logger, error) {
	var logWriter io.Writer
	switch ctx.String(FlagLogWriter.Name) {
	case "console":
		logWriter = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		}
	case "json":
		logWriter = os.Stderr
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log writer")
	}

	if path := ctx.String(FlagLogFile.Name); path != "" {
		logWriter = zerolog.MultiLevelWriter(logWriter, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}

	logger := zerolog.New(logWriter).With().Timestamp().
		Str("service", "mqtt-chat").
		Str("module", "main").
		Logger()

	level, err := zerolog.ParseLevel(ctx.String(FlagLogLevel.Name))
	if err != nil {
		return logger, err
	}

	zerolog.SetGlobalLevel(level)

	return logger, nil
}
