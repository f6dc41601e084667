package adapters

import (
	"bufio"
	"fmt"
	"io"
	"mqtt-chat/application"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const continuation = `\`

type TerminalParams struct {
	In  io.Reader
	Out io.Writer

	// Dispatcher is the queue the terminal shares with the chat controller.
	Dispatcher application.Dispatcher

	Status  func() application.MQTTStatus
	NoColor bool

	Log zerolog.Logger
}

// Terminal is a line based chat surface. Lines ending in a backslash continue
// the input, any other line completes it and triggers send. Lines starting with
// a known slash command on an empty input are commands, any other line is text.
type Terminal struct {
	params TerminalParams

	out   io.Writer
	input []string

	account application.Account
	crypt   application.Crypt

	onSend func()
	onQuit func()

	transcript *color.Color
	status     *color.Color
	info       *color.Color

	log zerolog.Logger
}

func NewTerminal(params TerminalParams) (*Terminal, error) {
	if params.In == nil {
		return nil, fmt.Errorf("In is nil")
	}
	if params.Out == nil {
		return nil, fmt.Errorf("Out is nil")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("Dispatcher is nil")
	}

	t := &Terminal{
		params:     params,
		out:        params.Out,
		onSend:     func() {},
		onQuit:     func() {},
		transcript: color.New(color.FgCyan),
		status:     color.New(color.FgYellow, color.Bold),
		info:       color.New(color.FgHiBlack),
		log:        params.Log,
	}
	if params.NoColor {
		t.transcript.DisableColor()
		t.status.DisableColor()
		t.info.DisableColor()
	}
	return t, nil
}

// OnSend sets the send trigger. It runs on the dispatcher goroutine.
func (t *Terminal) OnSend(fn func()) {
	t.onSend = fn
}

// OnQuit sets the handler for /quit and end of input.
func (t *Terminal) OnQuit(fn func()) {
	t.onQuit = fn
}

func (t *Terminal) AppendTranscript(text string) {
	t.transcript.Fprint(t.out, text)
}

func (t *Terminal) InputText() string {
	return strings.Join(t.input, "\n")
}

func (t *Terminal) ClearInput() {
	t.input = nil
}

func (t *Terminal) ShowState(state application.ConnectionState) {
	t.status.Fprintf(t.out, "* %s\n", state)
}

func (t *Terminal) Account() application.Account {
	return t.account
}

func (t *Terminal) Crypt() application.Crypt {
	return t.crypt
}

// ReadLoop reads input lines until EOF and hands each one to the dispatcher.
// It blocks on the reader, so it is not tied to a context.
func (t *Terminal) ReadLoop() error {
	scanner := bufio.NewScanner(t.params.In)
	for scanner.Scan() {
		line := scanner.Text()
		t.params.Dispatcher.Post(func() { t.HandleLine(line) })
	}

	t.params.Dispatcher.Post(t.onQuit)
	return scanner.Err()
}

// HandleLine must be called on the dispatcher goroutine.
func (t *Terminal) HandleLine(line string) {
	if len(t.input) == 0 && strings.HasPrefix(line, "/") && t.command(strings.Fields(line)) {
		return
	}

	if strings.HasSuffix(line, continuation) {
		t.input = append(t.input, strings.TrimSuffix(line, continuation))
		return
	}

	t.input = append(t.input, line)
	t.onSend()
}

// command runs a slash command and reports whether the line was one.
func (t *Terminal) command(args []string) bool {
	if len(args) == 0 {
		return false
	}

	switch strings.ToLower(args[0]) {
	case "/quit":
		t.onQuit()
	case "/account":
		if len(args) != 3 {
			t.info.Fprintln(t.out, "usage: /account <username> <password>")
			return true
		}
		t.account = application.Account{Username: args[1], Password: args[2]}
		t.info.Fprintln(t.out, "account saved (not sent to the broker)")
	case "/crypt":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			t.info.Fprintln(t.out, "usage: /crypt on|off [key]")
			return true
		}
		t.crypt.Enabled = args[1] == "on"
		if len(args) > 2 {
			t.crypt.Key = args[2]
		}
		t.info.Fprintln(t.out, "crypt settings saved (messages are not encrypted)")
	case "/status":
		if t.params.Status == nil {
			return true
		}
		s := t.params.Status()
		t.info.Fprintf(t.out, "connected=%t sent=%d received=%d\n", s.Connected, s.MessageCount, s.ReceivedCount)
	case "/help":
		t.info.Fprintln(t.out, "commands: /account <username> <password>, /crypt on|off [key], /status, /quit")
		t.info.Fprintln(t.out, `end a line with \ to continue the message on the next line`)
		t.info.Fprintln(t.out, "other lines starting with / are sent as text")
	default:
		t.log.Debug().Str("command", args[0]).Msg("not a command, sending as text")
		return false
	}
	return true
}

var _ application.Surface = &Terminal{}
