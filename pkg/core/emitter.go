package core

import "sync"

type EventFunc func(data any)

// Emitter - mapping-based pub/sub with one subscriber list per event name.
// Emission is synchronous in the caller goroutine, subscribers must not block.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[string][]EventFunc
}

func (e *Emitter) On(event string, f EventFunc) {
	e.mu.Lock()
	if e.handlers == nil {
		e.handlers = map[string][]EventFunc{}
	}
	e.handlers[event] = append(e.handlers[event], f)
	e.mu.Unlock()
}

func (e *Emitter) Emit(event string, data any) {
	e.mu.RLock()
	handlers := e.handlers[event]
	e.mu.RUnlock()

	for _, f := range handlers {
		f(data)
	}
}
