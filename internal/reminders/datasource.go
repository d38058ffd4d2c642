// Package reminders is the data layer between the view models and the SQLite
// store. It contains the [DataSource] contract, the store-backed
// [LocalDataSource], and the instrumented [Repository] that view models talk
// to.
//
// Read operations return a [result.Result] rather than a Go error, carrying
// the storage engine's own message. Writes return a wrapped error.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/result"
)

// NotFoundMessage is the error message returned when no reminder matches an ID.
const NotFoundMessage = "Reminder not found!"

// DataSource is the reminder persistence contract. Implemented by
// [LocalDataSource], [Repository] and the test fakes in reminderstest.
type DataSource interface {
	GetReminders(ctx context.Context) result.Result[[]model.Reminder]
	SaveReminder(ctx context.Context, r model.Reminder) error
	GetReminder(ctx context.Context, id string) result.Result[model.Reminder]
	DeleteAllReminders(ctx context.Context) error
}

// Store is the subset of [state.Store] used by the data source.
type Store interface {
	GetReminders(ctx context.Context) ([]model.Reminder, error)
	GetReminderByID(ctx context.Context, id string) (*model.Reminder, error)
	UpsertReminder(ctx context.Context, r model.Reminder) error
	DeleteAllReminders(ctx context.Context) error
}

// LocalDataSource reads and writes reminders in the embedded database. Every
// call is handed to a [Dispatcher] so the store's blocking I/O never runs on
// the caller's goroutine.
type LocalDataSource struct {
	store Store
	io    Dispatcher
	log   *slog.Logger
}

// NewLocalDataSource creates a LocalDataSource. A nil dispatcher defaults to an
// [IOPool] with four slots.
func NewLocalDataSource(store Store, io Dispatcher, logger *slog.Logger) *LocalDataSource {
	if io == nil {
		io = NewIOPool(4)
	}
	return &LocalDataSource{store: store, io: io, log: logger}
}

// GetReminders returns all reminders in insertion order, or an error Result
// carrying the storage error message.
func (d *LocalDataSource) GetReminders(ctx context.Context) result.Result[[]model.Reminder] {
	var (
		reminders []model.Reminder
		err       error
	)
	if dErr := d.io.Dispatch(ctx, func() {
		reminders, err = d.store.GetReminders(ctx)
	}); dErr != nil {
		return result.FromError[[]model.Reminder](dErr)
	}
	if err != nil {
		d.log.Warn("listing reminders failed", "error", err)
		return result.FromError[[]model.Reminder](cause(err))
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	return result.Ok(reminders)
}

// SaveReminder inserts r, or replaces the stored reminder with the same ID.
func (d *LocalDataSource) SaveReminder(ctx context.Context, r model.Reminder) error {
	var err error
	if dErr := d.io.Dispatch(ctx, func() {
		err = d.store.UpsertReminder(ctx, r)
	}); dErr != nil {
		return fmt.Errorf("saving reminder %q: %w", r.ID, dErr)
	}
	if err != nil {
		return err
	}
	d.log.Debug("reminder saved", "id", r.ID)
	return nil
}

// GetReminder returns the reminder with the given ID. A missing row yields an
// error Result with [NotFoundMessage].
func (d *LocalDataSource) GetReminder(ctx context.Context, id string) result.Result[model.Reminder] {
	var (
		found *model.Reminder
		err   error
	)
	if dErr := d.io.Dispatch(ctx, func() {
		found, err = d.store.GetReminderByID(ctx, id)
	}); dErr != nil {
		return result.FromError[model.Reminder](dErr)
	}
	if err != nil {
		d.log.Warn("loading reminder failed", "id", id, "error", err)
		return result.FromError[model.Reminder](cause(err))
	}
	if found == nil {
		return result.Err[model.Reminder](NotFoundMessage)
	}
	return result.Ok(*found)
}

// DeleteAllReminders clears the reminder table. This cannot be undone.
func (d *LocalDataSource) DeleteAllReminders(ctx context.Context) error {
	var err error
	if dErr := d.io.Dispatch(ctx, func() {
		err = d.store.DeleteAllReminders(ctx)
	}); dErr != nil {
		return fmt.Errorf("deleting all reminders: %w", dErr)
	}
	if err != nil {
		return err
	}
	d.log.Debug("all reminders deleted")
	return nil
}

// cause strips the store's context wrapping so error Results show the
// engine's message.
func cause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
