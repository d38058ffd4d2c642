// Package reminderstest provides an in-memory [reminders.DataSource] for tests
// of code that sits above the repository.
package reminderstest

import (
	"context"
	"errors"
	"sync"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/result"
)

// NotFoundMessage mirrors the production not-found message.
const NotFoundMessage = "Reminder not found!"

// FakeDataSource keeps reminders in a slice. Switch it into a failing state
// with SetError to exercise error paths.
type FakeDataSource struct {
	mu        sync.Mutex
	reminders []model.Reminder
	errMsg    string
	failing   bool

	// Gate, when non-nil, blocks every call until it is closed or receives a
	// value. Lets tests observe state while a call is in flight.
	Gate chan struct{}

	saves int
}

// NewFakeDataSource returns a fake pre-populated with reminders.
func NewFakeDataSource(reminders ...model.Reminder) *FakeDataSource {
	return &FakeDataSource{reminders: append([]model.Reminder(nil), reminders...)}
}

// SetError makes every subsequent call fail with msg. An empty msg clears the
// failing state.
func (f *FakeDataSource) SetError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errMsg = msg
	f.failing = msg != ""
}

// Saves returns how many times SaveReminder was called.
func (f *FakeDataSource) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// All returns a copy of the stored reminders.
func (f *FakeDataSource) All() []model.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Reminder(nil), f.reminders...)
}

func (f *FakeDataSource) wait(ctx context.Context) error {
	if f.Gate == nil {
		return nil
	}
	select {
	case <-f.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeDataSource) GetReminders(ctx context.Context) result.Result[[]model.Reminder] {
	if err := f.wait(ctx); err != nil {
		return result.FromError[[]model.Reminder](err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return result.Err[[]model.Reminder](f.errMsg)
	}
	return result.Ok(append([]model.Reminder{}, f.reminders...))
}

func (f *FakeDataSource) SaveReminder(ctx context.Context, r model.Reminder) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failing {
		return errors.New(f.errMsg)
	}
	for i := range f.reminders {
		if f.reminders[i].ID == r.ID {
			f.reminders[i] = r
			return nil
		}
	}
	f.reminders = append(f.reminders, r)
	return nil
}

func (f *FakeDataSource) GetReminder(ctx context.Context, id string) result.Result[model.Reminder] {
	if err := f.wait(ctx); err != nil {
		return result.FromError[model.Reminder](err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return result.Err[model.Reminder](f.errMsg)
	}
	for _, r := range f.reminders {
		if r.ID == id {
			return result.Ok(r)
		}
	}
	return result.Err[model.Reminder](NotFoundMessage)
}

func (f *FakeDataSource) DeleteAllReminders(ctx context.Context) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New(f.errMsg)
	}
	f.reminders = nil
	return nil
}
