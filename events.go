package instanced

import (
	"context"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Event is a platform event delivered to the scheduler.
type Event interface{ isEvent() }

// CloseEvent asks the loop to exit.
type CloseEvent struct{}

// KeyEvent reports a key press or release.
type KeyEvent struct {
	Key  gpucontext.Key
	Mods gpucontext.Modifiers
	Down bool
}

// EventsClearedEvent reports that the platform drained its event queue
// and the loop may advance the simulation.
type EventsClearedEvent struct{}

// RedrawEvent asks the loop to draw a frame.
type RedrawEvent struct{}

// ResizeEvent reports a new surface size in pixels.
type ResizeEvent struct {
	Width, Height int
}

func (CloseEvent) isEvent()         {}
func (KeyEvent) isEvent()           {}
func (EventsClearedEvent) isEvent() {}
func (RedrawEvent) isEvent()        {}
func (ResizeEvent) isEvent()        {}

// EventLoop holds a platform's event channel until a single consumer
// takes it. The hand-off happens exactly once.
type EventLoop struct {
	mu     sync.Mutex
	events <-chan Event
	taken  bool
}

// NewEventLoop wraps the channel a platform delivers events on. The
// platform closes the channel when it has no more events.
func NewEventLoop(events <-chan Event) *EventLoop {
	return &EventLoop{events: events}
}

// Take hands the event source off to the caller. Every call after the
// first returns ErrEventSourceTaken.
func (l *EventLoop) Take() (*EventStream, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.taken {
		return nil, ErrEventSourceTaken
	}
	l.taken = true
	events := l.events
	l.events = nil
	return &EventStream{events: events}, nil
}

// MustTake is like Take but panics if the source was already taken.
func (l *EventLoop) MustTake() *EventStream {
	s, err := l.Take()
	if err != nil {
		panic(err)
	}
	return s
}

// Taken reports whether the source has been handed off.
func (l *EventLoop) Taken() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.taken
}

// EventStream is the owned, single-consumer side of an EventLoop.
type EventStream struct {
	events <-chan Event
}

// Next blocks until an event arrives. It returns false when the platform
// closed the channel or ctx is done.
func (s *EventStream) Next(ctx context.Context) (Event, bool) {
	select {
	case ev, ok := <-s.events:
		return ev, ok
	case <-ctx.Done():
		return nil, false
	}
}
