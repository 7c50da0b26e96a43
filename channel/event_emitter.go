package channel

import (
	"sync"
)

// Event as delivered to listeners. Data is json.RawMessage for events
// arriving off the wire; locally synthesized events may carry any type.
type Event struct {
	Type string
	Data any
}

// EventHandler receives events registered for with On, Once or onInternal.
type EventHandler func(Event)

type listener struct {
	id   int
	once bool
	fn   EventHandler
}

// eventEmitter dispatches events to two listener registries: the internal
// one (framework listeners that keep the object tree consistent) and the
// external one (application listeners). Internal listeners always run
// first, and all listeners run synchronously on the goroutine emitting the
// event, so events targeting the same object are observed in delivery
// order.
type eventEmitter struct {
	mu       sync.Mutex
	seq      int
	internal map[string][]*listener
	external map[string][]*listener
}

// On registers an application listener and returns its removal func.
func (e *eventEmitter) On(event string, fn EventHandler) (off func()) {
	return e.add(&e.external, event, fn, false)
}

// Once registers an application listener removed after its first event.
func (e *eventEmitter) Once(event string, fn EventHandler) (off func()) {
	return e.add(&e.external, event, fn, true)
}

// onInternal registers a framework listener; these run before any
// application listener of the same event.
func (e *eventEmitter) onInternal(event string, fn EventHandler) (off func()) {
	return e.add(&e.internal, event, fn, false)
}

func (e *eventEmitter) add(reg *map[string][]*listener, event string, fn EventHandler, once bool) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if *reg == nil {
		*reg = make(map[string][]*listener)
	}
	e.seq++
	l := &listener{id: e.seq, once: once, fn: fn}
	(*reg)[event] = append((*reg)[event], l)

	id := l.id
	return func() { e.remove(reg, event, id) }
}

func (e *eventEmitter) remove(reg *map[string][]*listener, event string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := (*reg)[event]
	for i, l := range ls {
		if l.id == id {
			(*reg)[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// emit invokes internal then external listeners, in registration order.
func (e *eventEmitter) emit(event string, data any) {
	e.mu.Lock()
	run := make([]*listener, 0, len(e.internal[event])+len(e.external[event]))
	run = append(run, e.internal[event]...)
	run = append(run, e.external[event]...)
	e.dropOnce(e.internal, event)
	e.dropOnce(e.external, event)
	e.mu.Unlock()

	ev := Event{Type: event, Data: data}
	for _, l := range run {
		l.fn(ev)
	}
}

func (e *eventEmitter) dropOnce(reg map[string][]*listener, event string) {
	ls := reg[event]
	kept := ls[:0]
	for _, l := range ls {
		if !l.once {
			kept = append(kept, l)
		}
	}
	if len(kept) != len(ls) {
		reg[event] = kept
	}
}

// listenerCount reports listeners registered for event across both
// registries.
func (e *eventEmitter) listenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.internal[event]) + len(e.external[event])
}
