package viewmodel

import (
	"context"
	"sync"
)

// Observable holds a single piece of screen state. Observers are called
// synchronously on every Set, after the value is stored. The zero value is
// ready to use and holds T's zero value.
type Observable[T any] struct {
	mu        sync.Mutex
	value     T
	observers map[int]func(T)
	nextID    int
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set stores v and notifies every observer.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	o.value = v
	fns := make([]func(T), 0, len(o.observers))
	for _, fn := range o.observers {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Observe registers fn, calls it once with the current value, and returns a
// function that unregisters it.
func (o *Observable[T]) Observe(fn func(T)) (cancel func()) {
	o.mu.Lock()
	if o.observers == nil {
		o.observers = make(map[int]func(T))
	}
	id := o.nextID
	o.nextID++
	o.observers[id] = fn
	current := o.value
	o.mu.Unlock()

	fn(current)

	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// EventQueue is an unbounded FIFO of one-shot events. Each event is handed
// to exactly one consumer and then forgotten, so nothing re-fires when a
// screen is recreated. The zero value is ready to use.
type EventQueue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
}

func (q *EventQueue[T]) signal() chan struct{} {
	if q.notify == nil {
		q.notify = make(chan struct{}, 1)
	}
	return q.notify
}

// Send appends v to the queue.
func (q *EventQueue[T]) Send(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	ch := q.signal()
	q.mu.Unlock()

	select {
	case ch <- struct{}{}:
	default:
	}
}

// TryNext removes and returns the oldest event, if any.
func (q *EventQueue[T]) TryNext() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v, true
}

// Next blocks until an event is available or ctx is done.
func (q *EventQueue[T]) Next(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryNext(); ok {
			return v, nil
		}
		q.mu.Lock()
		ch := q.signal()
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Drain removes and returns every pending event in order.
func (q *EventQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of pending events.
func (q *EventQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
