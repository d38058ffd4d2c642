package reminders

import (
	"context"
	"fmt"
)

// Dispatcher decides where blocking storage work runs. Dispatch returns once
// fn has finished, or early with the context error if ctx is cancelled first.
type Dispatcher interface {
	Dispatch(ctx context.Context, fn func()) error
}

// IOPool runs work on separate goroutines, bounded to a fixed number of
// concurrent slots. Create one with [NewIOPool].
//
// When the caller's context is cancelled, Dispatch returns immediately but the
// work already handed to SQLite is left to finish on its own; nothing is
// rolled back.
type IOPool struct {
	slots chan struct{}
}

// NewIOPool creates a pool with the given number of concurrent slots.
// Values below 1 are treated as 1.
func NewIOPool(workers int) *IOPool {
	if workers < 1 {
		workers = 1
	}
	return &IOPool{slots: make(chan struct{}, workers)}
}

// Dispatch implements [Dispatcher].
func (p *IOPool) Dispatch(ctx context.Context, fn func()) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for I/O slot: %w", ctx.Err())
	}

	done := make(chan struct{})
	go func() {
		defer func() { <-p.slots }()
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("abandoned in-flight I/O: %w", ctx.Err())
	}
}

// Inline runs work directly on the caller's goroutine. Tests use it to make
// data source calls deterministic.
type Inline struct{}

// Dispatch implements [Dispatcher].
func (Inline) Dispatch(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}
