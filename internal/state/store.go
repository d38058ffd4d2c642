// Package state owns the embedded SQLite database that persists reminders.
//
// Only this package may open or query the database. All other packages receive
// a [*Store] (usually behind a consumer-side interface) and call its methods.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/njoerd114/locationreminders/internal/model"
)

// MemoryPath opens a private in-memory database. Useful for tests.
const MemoryPath = ":memory:"

const reminderColumns = `id, title, description, location, latitude, longitude`

// Store is the SQLite-backed reminder table.
type Store struct {
	db   *sqlx.DB
	path string
}

// DefaultDBPath returns the default path for the reminder database:
// ~/.local/share/locationreminders/reminders.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "locationreminders", "reminders.db"), nil
}

// Open opens (or creates) the SQLite database at path, applies pending
// migrations, and configures WAL mode. Pass [MemoryPath] for a throwaway
// in-memory database.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// Single connection: SQLite serialises writers, and an in-memory database
	// only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the location the store was opened from.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetReminders returns every reminder in insertion order. The slice is never
// nil.
func (s *Store) GetReminders(ctx context.Context) ([]model.Reminder, error) {
	const q = `SELECT ` + reminderColumns + ` FROM reminders ORDER BY rowid`

	reminders := []model.Reminder{}
	if err := s.db.SelectContext(ctx, &reminders, q); err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	return reminders, nil
}

// GetReminderByID returns the reminder with the given ID,
// or (nil, nil) if no such reminder exists.
func (s *Store) GetReminderByID(ctx context.Context, id string) (*model.Reminder, error) {
	const q = `SELECT ` + reminderColumns + ` FROM reminders WHERE id = ?`

	var r model.Reminder
	err := s.db.GetContext(ctx, &r, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("querying reminder %q: %w", id, err)
	}
	return &r, nil
}

// UpsertReminder inserts r or replaces every column of the existing row with
// the same ID. A replaced row keeps its original position in the listing.
func (s *Store) UpsertReminder(ctx context.Context, r model.Reminder) error {
	if r.ID == "" {
		return fmt.Errorf("upserting reminder: empty id")
	}

	const q = `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES (:id, :title, :description, :location, :latitude, :longitude)
		ON CONFLICT(id) DO UPDATE SET
		    title       = excluded.title,
		    description = excluded.description,
		    location    = excluded.location,
		    latitude    = excluded.latitude,
		    longitude   = excluded.longitude`

	if _, err := s.db.NamedExecContext(ctx, q, r); err != nil {
		return fmt.Errorf("upserting reminder %q: %w", r.ID, err)
	}
	return nil
}

// DeleteAllReminders removes every row from the reminders table.
func (s *Store) DeleteAllReminders(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("deleting all reminders: %w", err)
	}
	return nil
}

// Count returns the number of stored reminders.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reminders`); err != nil {
		return 0, fmt.Errorf("counting reminders: %w", err)
	}
	return n, nil
}
