package player

import "sync"

// Emitter keeps the listener table of a Handle.  It is safe for concurrent use and listeners may add or remove
// listeners while being called.
type Emitter struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[EventName]map[ListenerID]Listener
}

// NewEmitter creates an empty emitter
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: make(map[EventName]map[ListenerID]Listener),
	}
}

// AddEventListener registers l for events named name
func (e *Emitter) AddEventListener(name EventName, l Listener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	if e.listeners[name] == nil {
		e.listeners[name] = make(map[ListenerID]Listener)
	}
	e.listeners[name][e.nextID] = l
	return e.nextID
}

// RemoveEventListener removes a listener.  Unknown ids are ignored.
func (e *Emitter) RemoveEventListener(name EventName, id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.listeners[name], id)
	if len(e.listeners[name]) == 0 {
		delete(e.listeners, name)
	}
}

// ListenerCount returns how many listeners are registered for name
func (e *Emitter) ListenerCount(name EventName) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}

// Emit calls every listener registered for ev.Name
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	targets := make([]Listener, 0, len(e.listeners[ev.Name]))
	for _, l := range e.listeners[ev.Name] {
		targets = append(targets, l)
	}
	e.mu.Unlock()

	for _, l := range targets {
		l(ev)
	}
}
