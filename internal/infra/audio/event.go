package audio

import "sync"

// Event is a manual-reset signal. Once set, Wait returns immediately for every
// waiter until Clear is called.
type Event struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.set {
		return
	}
	e.set = true
	close(e.ch)
}

func (e *Event) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.set {
		return
	}
	e.set = false
	e.ch = make(chan struct{})
}

func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Done returns a channel closed while the event is set. A later Clear does not
// reopen a channel already handed out.
func (e *Event) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

func (e *Event) Wait() {
	<-e.Done()
}
