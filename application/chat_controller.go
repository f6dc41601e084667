package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHostname       = "mqtt.eclipseprojects.io"
	DefaultPublishTopic   = "chat_lefteris_special_lala"
	DefaultSubscribeTopic = DefaultPublishTopic + "/#"

	DefaultReportInterval = 30 * time.Second

	chatQoS = byte(0)
)

type ChatControllerParams struct {
	Connection MQTTConnection
	Surface    Surface
	Dispatcher Dispatcher

	Hostname       string
	PublishTopic   string
	SubscribeTopic string

	ReportInterval time.Duration

	Log zerolog.Logger
}

func (p *ChatControllerParams) EnsureDefaults() {
	if p.PublishTopic == "" {
		p.PublishTopic = DefaultPublishTopic
	}
	if p.SubscribeTopic == "" {
		p.SubscribeTopic = p.PublishTopic + "/#"
	}
	if p.ReportInterval == 0 {
		p.ReportInterval = DefaultReportInterval
	}
}

type ChatController struct {
	params ChatControllerParams

	conn       MQTTConnection
	surface    Surface
	dispatcher Dispatcher

	log zerolog.Logger
}

func NewChatController(params ChatControllerParams) (*ChatController, error) {
	if params.Connection == nil {
		return nil, fmt.Errorf("Connection is nil")
	}
	if params.Surface == nil {
		return nil, fmt.Errorf("Surface is nil")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("Dispatcher is nil")
	}
	params.EnsureDefaults()

	c := &ChatController{
		params:     params,
		conn:       params.Connection,
		surface:    params.Surface,
		dispatcher: params.Dispatcher,
		log:        params.Log,
	}

	c.conn.On(EventStateChanged, func(v any) {
		state, _ := v.(ConnectionState)
		c.dispatcher.Post(func() { c.onStateChanged(state) })
	})
	c.conn.On(EventMessageReceived, func(v any) {
		text, _ := v.(string)
		c.dispatcher.Post(func() { c.onMessage(text) })
	})

	c.conn.SetHostname(params.Hostname)
	return c, nil
}

// Start initiates the connection to the configured host.
func (c *ChatController) Start() {
	c.log.Info().Str("hostname", c.conn.Hostname()).Int("port", c.conn.Port()).Msg("connecting")
	c.conn.ConnectToHost()
}

// Send publishes the surface input and clears it. Must be called on the dispatcher goroutine.
func (c *ChatController) Send() {
	text := c.surface.InputText()
	if len(text) == 0 {
		return
	}

	if err := c.conn.Publish(c.params.PublishTopic, chatQoS, text); err != nil {
		c.log.Warn().Err(err).Str("topic", c.params.PublishTopic).Msg("failed to send message")
		return
	}
	c.surface.ClearInput()
}

func (c *ChatController) Close() {
	c.conn.DisconnectFromHost()
}

// Run connects and reports connection statistics until ctx is done, then disconnects.
func (c *ChatController) Run(ctx context.Context) error {
	g := errgroup.Group{}

	g.Go(func() error {
		c.Start()
		<-ctx.Done()

		c.log.Info().Msg("disconnecting")
		c.Close()
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(c.params.ReportInterval)
		defer ticker.Stop()
		lastStatus := MQTTStatus{}

	ReporterLoop:
		for {
			select {
			case <-ctx.Done():
				break ReporterLoop
			case <-ticker.C:
				newStatus := c.conn.Status()
				if newStatus != lastStatus {
					c.log.Info().
						Uint64("sent", newStatus.MessageCount).
						Uint64("received", newStatus.ReceivedCount).
						Bool("is_connected", newStatus.Connected).
						Time("last_time_published", newStatus.LastTimePublished).
						Msg("chat report")
				}
				lastStatus = newStatus
			}
		}

		return nil
	})

	return g.Wait()
}

func (c *ChatController) onStateChanged(state ConnectionState) {
	c.surface.ShowState(state)
	if state == Connected {
		c.conn.Subscribe(c.params.SubscribeTopic)
	}
}

func (c *ChatController) onMessage(text string) {
	c.surface.AppendTranscript(text + "\n")
}
