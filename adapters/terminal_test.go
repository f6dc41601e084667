package adapters

import (
	"bytes"
	"mqtt-chat/application"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal(t *testing.T, in string) (*Terminal, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	terminal, err := NewTerminal(TerminalParams{
		In:         strings.NewReader(in),
		Out:        out,
		Dispatcher: application.DispatchFunc(func(fn func()) { fn() }),
		Status: func() application.MQTTStatus {
			return application.MQTTStatus{Connected: true, MessageCount: 2, ReceivedCount: 3}
		},
		NoColor: true,
	})
	require.NoError(t, err)
	return terminal, out
}

func TestNewTerminal_MissingParams(t *testing.T) {
	_, err := NewTerminal(TerminalParams{Out: &bytes.Buffer{}, Dispatcher: application.DispatchFunc(func(fn func()) {})})
	require.Error(t, err)

	_, err = NewTerminal(TerminalParams{In: strings.NewReader(""), Dispatcher: application.DispatchFunc(func(fn func()) {})})
	require.Error(t, err)

	_, err = NewTerminal(TerminalParams{In: strings.NewReader(""), Out: &bytes.Buffer{}})
	require.Error(t, err)
}

func TestTerminal_ReadLoop_SendsLines(t *testing.T) {
	terminal, _ := newTestTerminal(t, "hello\nfirst \\\nsecond\n")

	var sent []string
	quit := false
	terminal.OnSend(func() {
		sent = append(sent, terminal.InputText())
		terminal.ClearInput()
	})
	terminal.OnQuit(func() { quit = true })

	require.NoError(t, terminal.ReadLoop())

	assert.Equal(t, []string{"hello", "first \nsecond"}, sent)
	assert.True(t, quit)
}

func TestTerminal_InputKeptWhenNotCleared(t *testing.T) {
	terminal, _ := newTestTerminal(t, "")

	sends := 0
	terminal.OnSend(func() { sends++ })

	terminal.HandleLine("one")
	terminal.HandleLine("two")

	assert.Equal(t, 2, sends)
	assert.Equal(t, "one\ntwo", terminal.InputText())
}

func TestTerminal_Commands(t *testing.T) {
	terminal, out := newTestTerminal(t, "")

	quit := false
	terminal.OnQuit(func() { quit = true })
	terminal.OnSend(func() { t.Fatal("commands must not send") })

	terminal.HandleLine("/account alice secret")
	assert.Equal(t, application.Account{Username: "alice", Password: "secret"}, terminal.Account())

	terminal.HandleLine("/crypt on key123")
	assert.Equal(t, application.Crypt{Enabled: true, Key: "key123"}, terminal.Crypt())

	terminal.HandleLine("/crypt off")
	assert.Equal(t, application.Crypt{Enabled: false, Key: "key123"}, terminal.Crypt())

	terminal.HandleLine("/crypt maybe")
	assert.Contains(t, out.String(), "usage: /crypt")

	terminal.HandleLine("/status")
	assert.Contains(t, out.String(), "connected=true sent=2 received=3")

	terminal.HandleLine("/quit")
	assert.True(t, quit)
}

func TestTerminal_Commands_CaseInsensitive(t *testing.T) {
	terminal, out := newTestTerminal(t, "")

	quit := false
	terminal.OnQuit(func() { quit = true })
	terminal.OnSend(func() { t.Fatal("commands must not send") })

	terminal.HandleLine("/Status")
	assert.Contains(t, out.String(), "connected=true sent=2 received=3")

	terminal.HandleLine("/QUIT")
	assert.True(t, quit)
}

func TestTerminal_UnknownSlashLineIsSent(t *testing.T) {
	terminal, _ := newTestTerminal(t, "")

	var sent []string
	terminal.OnSend(func() {
		sent = append(sent, terminal.InputText())
		terminal.ClearInput()
	})

	terminal.HandleLine("/shrug ok")
	terminal.HandleLine("/")

	assert.Equal(t, []string{"/shrug ok", "/"}, sent)
}

func TestTerminal_SlashInsideMessage(t *testing.T) {
	terminal, _ := newTestTerminal(t, "")

	var sent string
	terminal.OnSend(func() { sent = terminal.InputText() })

	terminal.HandleLine("path \\")
	terminal.HandleLine("/usr/bin")

	assert.Equal(t, "path \n/usr/bin", sent)
}

func TestTerminal_Output(t *testing.T) {
	terminal, out := newTestTerminal(t, "")

	terminal.ShowState(application.Connected)
	terminal.AppendTranscript("hello\n")

	assert.Equal(t, "* connected\nhello\n", out.String())
}
