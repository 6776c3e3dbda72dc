package sink

import (
	"errors"
	"sync"

	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// ErrClosed is returned by sinks that no longer accept events
var ErrClosed = errors.New("sink closed")

// MemorySink keeps every event in memory
type MemorySink struct {
	mu     sync.Mutex
	events []integrator.RayEvent
}

// NewMemorySink creates an empty memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record stores the event
func (m *MemorySink) Record(e integrator.RayEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Events returns a copy of the recorded events
func (m *MemorySink) Events() []integrator.RayEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]integrator.RayEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Len returns the number of recorded events
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// MultiSink fans every event out to several sinks, stopping at the first error
type MultiSink []integrator.EventSink

// Record forwards the event to each sink in order
func (ms MultiSink) Record(e integrator.RayEvent) error {
	for _, s := range ms {
		if err := s.Record(e); err != nil {
			return err
		}
	}
	return nil
}

// FuncSink adapts a function to an EventSink
type FuncSink func(integrator.RayEvent) error

// Record calls f(e)
func (f FuncSink) Record(e integrator.RayEvent) error {
	return f(e)
}

// AsyncSink decouples the simulation from a slow sink through a buffered channel.
// A failure in the wrapped sink is reported by the next Record and by Close.
type AsyncSink struct {
	next   integrator.EventSink
	events chan integrator.RayEvent
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// NewAsyncSink starts a goroutine feeding next from a buffer of the given size
func NewAsyncSink(next integrator.EventSink, buffer int) *AsyncSink {
	if buffer <= 0 {
		buffer = 1024
	}
	a := &AsyncSink{
		next:   next,
		events: make(chan integrator.RayEvent, buffer),
		done:   make(chan struct{}),
	}
	go a.drain()
	return a
}

func (a *AsyncSink) drain() {
	defer close(a.done)
	for e := range a.events {
		if a.failed() != nil {
			continue
		}
		if err := a.next.Record(e); err != nil {
			a.mu.Lock()
			a.err = err
			a.mu.Unlock()
		}
	}
}

func (a *AsyncSink) failed() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Record queues the event. It only blocks when the buffer is full.
func (a *AsyncSink) Record(e integrator.RayEvent) error {
	a.mu.Lock()
	if a.err != nil {
		err := a.err
		a.mu.Unlock()
		return err
	}
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.mu.Unlock()

	a.events <- e
	return nil
}

// Close waits for queued events to be written and returns the first error.
// Record must not be called concurrently with Close.
func (a *AsyncSink) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()

	<-a.done
	return a.failed()
}
