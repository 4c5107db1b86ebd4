package verify

import (
	"fmt"
	"sync"
)

// EventType discriminates the events a run emits.
type EventType string

const (
	// EventProgress describes a stage of the run.
	EventProgress EventType = "progress"

	// EventResult carries the final report. Terminal.
	EventResult EventType = "result"

	// EventError carries a failure reason. Terminal.
	EventError EventType = "error"
)

// Event is one entry in a run's ordered event sequence: zero or more
// progress events followed by exactly one result or error event.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Report  *Report   `json:"report,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Reporter emits a run's event sequence to an in-process channel. The
// concrete transport (chunked HTTP, message queue, stderr stream) is the
// consumer's concern. A nil *Reporter discards all events, so pipeline code
// never has to guard emission.
type Reporter struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewReporter creates a Reporter with a buffered event channel. The buffer
// keeps slow consumers from stalling workers on progress emission.
func NewReporter(buffer int) *Reporter {
	if buffer < 1 {
		buffer = 16
	}
	return &Reporter{ch: make(chan Event, buffer)}
}

// Events returns the outbound event channel. It is closed after the
// terminal event.
func (r *Reporter) Events() <-chan Event {
	return r.ch
}

// Progress emits a progress event. Dropped if the terminal event has
// already been sent or the buffer is full.
func (r *Reporter) Progress(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- Event{Type: EventProgress, Message: fmt.Sprintf(format, args...)}:
	default:
		// A full buffer means the consumer is behind; progress is
		// advisory and safe to drop.
	}
}

// Result emits the terminal result event and closes the stream. Emission
// after any terminal event is a no-op.
func (r *Reporter) Result(report *Report) {
	r.terminal(Event{Type: EventResult, Report: report})
}

// Fail emits the terminal error event and closes the stream. Emission after
// any terminal event is a no-op.
func (r *Reporter) Fail(err error) {
	r.terminal(Event{Type: EventError, Error: err.Error()})
}

func (r *Reporter) terminal(ev Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true

	// The terminal event must land even if a stalled consumer left the
	// buffer full of progress events; those are droppable, the terminal
	// event is not.
	for {
		select {
		case r.ch <- ev:
			close(r.ch)
			return
		default:
			select {
			case <-r.ch:
			default:
			}
		}
	}
}
