package event

import (
	"reflect"
)

// Bus is the simulation outbox. Core code Emits while a tick runs; the
// output phase calls Flush, which swaps the buffers and delivers everything
// emitted so far to the subscribed handlers. Handlers that Emit during a
// flush land in the next flush, so delivery never recurses.
// Single-goroutine access only (game loop).
type Bus struct {
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
	known    map[reflect.Type]struct{}
	order    []reflect.Type // first-emit order, keeps delivery deterministic
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
		known:    make(map[reflect.Type]struct{}),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event for the next Flush.
func Emit[T any](b *Bus, ev T) {
	t := typeOf[T]()
	if _, ok := b.known[t]; !ok {
		b.known[t] = struct{}{}
		b.order = append(b.order, t)
	}
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Pending returns the queued, not yet flushed events of type T.
func Pending[T any](b *Bus) []T {
	raw := b.back[typeOf[T]()]
	out := make([]T, 0, len(raw))
	for _, ev := range raw {
		out = append(out, ev.(T))
	}
	return out
}

// Drain removes and returns the queued events of type T without running
// handlers. Used by callers that poll the outbox instead of subscribing.
func Drain[T any](b *Bus) []T {
	out := Pending[T](b)
	t := typeOf[T]()
	b.back[t] = b.back[t][:0]
	return out
}

// Flush swaps the buffers and dispatches every queued event, by event type
// in first-emit order, and by emit order within a type. It returns the
// number of events delivered.
func (b *Bus) Flush() int {
	b.front, b.back = b.back, b.front
	n := 0
	for _, t := range b.order {
		events := b.front[t]
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				h(ev)
			}
		}
		n += len(events)
		b.front[t] = events[:0]
	}
	return n
}
