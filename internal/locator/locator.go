// Package locator builds the reminder object graph (database → data source →
// repository) once and hands the same repository to every caller.
//
// A [Locator] is an ordinary value created at process start and passed
// explicitly to whatever needs it; there is no package-level singleton.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/njoerd114/locationreminders/internal/reminders"
	"github.com/njoerd114/locationreminders/internal/state"
)

// Options configures how the graph is built.
type Options struct {
	// DBPath is the SQLite file to open. Use [state.MemoryPath] in tests.
	DBPath string

	// IOWorkers bounds concurrent storage calls. Defaults to 4.
	IOWorkers int

	// Dispatcher overrides the I/O dispatcher. When nil an [reminders.IOPool]
	// with IOWorkers slots is used.
	Dispatcher reminders.Dispatcher
}

// Locator lazily constructs and owns one store and one repository.
type Locator struct {
	opts Options
	log  *slog.Logger

	mu    sync.Mutex
	store *state.Store
	repo  *reminders.Repository
}

// New creates a Locator. Nothing is opened until the first [Locator.Provide].
func New(opts Options, logger *slog.Logger) *Locator {
	if opts.IOWorkers <= 0 {
		opts.IOWorkers = 4
	}
	return &Locator{opts: opts, log: logger}
}

// Provide returns the repository, building the store and data source on the
// first call. Concurrent callers always receive the same instance.
func (l *Locator) Provide(_ context.Context) (*reminders.Repository, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.repo != nil {
		return l.repo, nil
	}

	store := l.store
	if store == nil {
		var err error
		store, err = state.Open(l.opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening reminder database: %w", err)
		}
		l.store = store
		l.log.Debug("reminder database opened", "path", l.opts.DBPath)
	}

	dispatcher := l.opts.Dispatcher
	if dispatcher == nil {
		dispatcher = reminders.NewIOPool(l.opts.IOWorkers)
	}

	source := reminders.NewLocalDataSource(store, dispatcher, l.log)
	l.repo = reminders.NewRepository(source, l.log)
	return l.repo, nil
}

// Reset deletes every stored reminder, closes the database and forgets both
// the store and the repository. It is safe to call when nothing was built.
func (l *Locator) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	store := l.store
	l.store = nil
	l.repo = nil
	if store == nil {
		return nil
	}

	var errs []error
	if err := store.DeleteAllReminders(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clearing reminders: %w", err))
	}
	if err := store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing reminder database: %w", err))
	}
	return errors.Join(errs...)
}

// Rebuild resets the locator and immediately provides a fresh repository
// backed by empty storage.
func (l *Locator) Rebuild(ctx context.Context) (*reminders.Repository, error) {
	if err := l.Reset(ctx); err != nil {
		return nil, err
	}
	return l.Provide(ctx)
}

// Close releases the database without deleting any data.
func (l *Locator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	store := l.store
	l.store = nil
	l.repo = nil
	if store == nil {
		return nil
	}
	return store.Close()
}
