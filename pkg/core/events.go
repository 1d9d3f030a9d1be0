package core

import (
	"net/http"
	"sync"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Event names emitted on the lifecycle Bus.
type Event string

const (
	// EventRoute fires before every bound handler runs. Payload: RouteEvent.
	EventRoute Event = "router:route"
	// EventBind fires after a handler was added to the route table. Payload: BindEvent.
	EventBind Event = "router:bind"
	// EventViewsLoaded fires once the view listing is known. Payload: map[string]View.
	EventViewsLoaded Event = "hook:load:views"
	// EventModelUpdate fires when a blueprint updated a record. Payload: ModelEvent.
	EventModelUpdate Event = "model:update"
)

// RouteEvent is the pre-dispatch notification payload.
type RouteEvent struct {
	W    http.ResponseWriter
	R    *http.Request
	Next httpx.Next
}

// BindEvent describes a freshly bound route.
type BindEvent struct {
	Handler httpx.Handler
	Path    string
	Verb    string
}

// ModelEvent is published after a record changed.
type ModelEvent struct {
	Record     any
	Controller string
	ID         string
}

// Listener receives an event payload.
type Listener func(payload any)

// Bus is a synchronous in-process event bus. Listeners run on the emitting
// goroutine, in registration order, before Emit returns.
type Bus struct {
	mu        sync.Mutex
	listeners map[Event][]Listener
	fired     map[Event]any
}

func NewBus() *Bus {
	return &Bus{
		listeners: make(map[Event][]Listener),
		fired:     make(map[Event]any),
	}
}

// On registers fn for every future emission of ev.
func (b *Bus) On(ev Event, fn Listener) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.listeners[ev] = append(b.listeners[ev], fn)
	b.mu.Unlock()
}

// After runs fn once ev has been signaled: immediately if it already was,
// otherwise on the next emission.
func (b *Bus) After(ev Event, fn Listener) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	payload, done := b.fired[ev]
	if !done {
		var once sync.Once
		b.listeners[ev] = append(b.listeners[ev], func(p any) { once.Do(func() { fn(p) }) })
	}
	b.mu.Unlock()
	if done {
		fn(payload)
	}
}

// Emit delivers payload to the listeners of ev.
func (b *Bus) Emit(ev Event, payload any) {
	b.emit(ev, payload, false)
}

// Signal is Emit for readiness events: the payload is remembered so later
// After registrations run straight away.
func (b *Bus) Signal(ev Event, payload any) {
	b.emit(ev, payload, true)
}

func (b *Bus) emit(ev Event, payload any, sticky bool) {
	b.mu.Lock()
	if sticky {
		b.fired[ev] = payload
	}
	ls := append([]Listener(nil), b.listeners[ev]...)
	b.mu.Unlock()
	for _, fn := range ls {
		fn(payload)
	}
}
