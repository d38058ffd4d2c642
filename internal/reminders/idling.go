package reminders

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// IdlingResource counts repository calls that are still running. Test
// harnesses use it to wait until asynchronous work has drained; production
// exports the same count as an OTel up/down counter.
type IdlingResource struct {
	mu       sync.Mutex
	inFlight int
	idle     chan struct{} // closed while inFlight == 0

	gauge metric.Int64UpDownCounter
}

// NewIdlingResource creates an idle IdlingResource. A nil gauge disables
// metric export.
func NewIdlingResource(gauge metric.Int64UpDownCounter) *IdlingResource {
	if gauge == nil {
		gauge = noop.Int64UpDownCounter{}
	}
	idle := make(chan struct{})
	close(idle)
	return &IdlingResource{idle: idle, gauge: gauge}
}

// Increment marks the start of a unit of work.
func (r *IdlingResource) Increment(ctx context.Context) {
	r.mu.Lock()
	if r.inFlight == 0 {
		r.idle = make(chan struct{})
	}
	r.inFlight++
	r.mu.Unlock()
	r.gauge.Add(ctx, 1)
}

// Decrement marks the end of a unit of work. Every Increment must be paired
// with exactly one Decrement.
func (r *IdlingResource) Decrement(ctx context.Context) {
	r.mu.Lock()
	if r.inFlight == 0 {
		r.mu.Unlock()
		panic("reminders: IdlingResource counter went negative")
	}
	r.inFlight--
	if r.inFlight == 0 {
		close(r.idle)
	}
	r.mu.Unlock()
	r.gauge.Add(ctx, -1)
}

// InFlight returns the number of units of work currently running.
func (r *IdlingResource) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// IsIdle reports whether no work is running.
func (r *IdlingResource) IsIdle() bool {
	return r.InFlight() == 0
}

// WaitIdle blocks until no work is running or ctx is done.
func (r *IdlingResource) WaitIdle(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.inFlight == 0 {
			r.mu.Unlock()
			return nil
		}
		idle := r.idle
		r.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
