package application

// Surface is the presentation side of the chat. All methods are called on the
// goroutine that drains the Dispatcher.
type Surface interface {
	AppendTranscript(text string)
	InputText() string
	ClearInput()
	ShowState(state ConnectionState)
}

// Account holds the credentials typed into the surface. They are never sent to the broker.
type Account struct {
	Username string
	Password string
}

// Crypt holds the encryption toggle and key typed into the surface. Nothing reads them.
type Crypt struct {
	Enabled bool
	Key     string
}
