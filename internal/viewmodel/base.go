// Package viewmodel holds per-screen state for the reminder list, the
// save-reminder flow and authentication. View models call the repository and
// project its results into [Observable] fields and one-shot [Effect]s; they
// never render anything themselves.
package viewmodel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/result"
)

// Repository is the reminder data access used by the view models.
// Implemented by [reminders.Repository].
type Repository interface {
	GetReminders(ctx context.Context) result.Result[[]model.Reminder]
	SaveReminder(ctx context.Context, r model.Reminder) error
	GetReminder(ctx context.Context, id string) result.Result[model.Reminder]
	DeleteAllReminders(ctx context.Context) error
}

// Effect is a one-shot instruction for the screen: show a message or
// navigate. The set of effects is closed; switch on the concrete type.
type Effect interface{ isEffect() }

// Toast is a short confirmation message.
type Toast struct{ Text string }

// SnackBar is a transient message carrying free text, usually an error.
type SnackBar struct{ Text string }

// SnackBarCode is a transient message identified by a fixed code.
type SnackBarCode struct{ Code MessageCode }

// Navigate asks the screen to move.
type Navigate struct{ Command NavigationCommand }

func (Toast) isEffect()        {}
func (SnackBar) isEffect()     {}
func (SnackBarCode) isEffect() {}
func (Navigate) isEffect()     {}

// MessageCode identifies a fixed user-facing message.
type MessageCode int

const (
	// ErrEnterTitle is raised when a reminder is saved without a title.
	ErrEnterTitle MessageCode = iota + 1
	// ErrSelectLocation is raised when a reminder is saved without a location.
	ErrSelectLocation
)

// String returns the message text.
func (c MessageCode) String() string {
	switch c {
	case ErrEnterTitle:
		return "Please enter title"
	case ErrSelectLocation:
		return "Please select location"
	default:
		return "Unknown error"
	}
}

// NavKind enumerates navigation commands.
type NavKind int

const NavBack NavKind = 1

// NavigationCommand describes where the screen should go next.
type NavigationCommand struct {
	Kind NavKind
}

// NavigateBack pops the current screen.
var NavigateBack = NavigationCommand{Kind: NavBack}

// Base carries the state every screen shares and the scope async work runs
// in. Embed it and call init from the constructor.
type Base struct {
	ShowLoading Observable[bool]
	ShowNoData  Observable[bool]
	Effects     EventQueue[Effect]

	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (b *Base) init(logger *slog.Logger) {
	b.log = logger
	b.ctx, b.cancel = context.WithCancel(context.Background())
}

// launch runs fn on its own goroutine inside the screen scope.
func (b *Base) launch(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
}

// Wait blocks until all work started by the view model has finished.
func (b *Base) Wait() {
	b.wg.Wait()
}

// Close cancels the screen scope. In-flight work is abandoned, not awaited; a
// write already handed to the database may still land.
func (b *Base) Close() {
	b.cancel()
}

func (b *Base) showToast(text string)          { b.Effects.Send(Toast{Text: text}) }
func (b *Base) showSnackBar(text string)       { b.Effects.Send(SnackBar{Text: text}) }
func (b *Base) showSnackBarCode(c MessageCode) { b.Effects.Send(SnackBarCode{Code: c}) }
func (b *Base) navigate(cmd NavigationCommand) { b.Effects.Send(Navigate{Command: cmd}) }
