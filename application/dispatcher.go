package application

import (
	"context"
	"sync"
)

const DefaultDispatchQueueSize = 256

// Dispatcher hands work over to the goroutine that owns the presentation surface.
type Dispatcher interface {
	Post(fn func())
}

// DispatchFunc adapts a function into a Dispatcher.
type DispatchFunc func(fn func())

func (f DispatchFunc) Post(fn func()) {
	f(fn)
}

// UIQueue is a Dispatcher drained by a single loop goroutine (Run).
type UIQueue struct {
	queue chan func()

	done     chan struct{}
	doneOnce sync.Once
}

func NewUIQueue(size int) *UIQueue {
	if size <= 0 {
		size = DefaultDispatchQueueSize
	}
	return &UIQueue{queue: make(chan func(), size), done: make(chan struct{})}
}

// Post enqueues fn. Work posted after the loop stopped is dropped.
func (q *UIQueue) Post(fn func()) {
	if fn == nil {
		return
	}

	select {
	case <-q.done:
	case q.queue <- fn:
	}
}

func (q *UIQueue) Run(ctx context.Context) error {
	defer q.doneOnce.Do(func() { close(q.done) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-q.queue:
			fn()
		}
	}
}
