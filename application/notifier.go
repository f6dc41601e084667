package application

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

// Handler receives the value carried by an event. Lifecycle events carry nil.
type Handler func(value any)

// Notifier maps event names to registered handlers. Emit runs handlers
// synchronously on the calling goroutine, in registration order.
type Notifier struct {
	handlers map[string][]Handler
	mu       sync.RWMutex

	log zerolog.Logger
}

func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{handlers: make(map[string][]Handler), log: log}
}

func (n *Notifier) On(event string, handler Handler) {
	if handler == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[event] = append(n.handlers[event], handler)
}

func (n *Notifier) Emit(event string, value any) {
	n.mu.RLock()
	handlers := make([]Handler, len(n.handlers[event]))
	copy(handlers, n.handlers[event])
	n.mu.RUnlock()

	for _, h := range handlers {
		var pc panics.Catcher
		pc.Try(func() { h(value) })
		if r := pc.Recovered(); r != nil {
			n.log.Error().Err(r.AsError()).Str("event", event).Msg("event handler panicked")
		}
	}
}
