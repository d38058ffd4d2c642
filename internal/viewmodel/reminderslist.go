package viewmodel

import (
	"context"
	"log/slog"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/result"
)

// AuthState is the sign-in state reported by the authentication service.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
)

// String returns the state name.
func (s AuthState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// LocationPermission is the location access level the user granted.
type LocationPermission int

const (
	PermissionNotGranted LocationPermission = iota
	PermissionCoarse
	PermissionPrecise
)

// String returns the permission name.
func (p LocationPermission) String() string {
	switch p {
	case PermissionPrecise:
		return "precise"
	case PermissionCoarse:
		return "coarse"
	default:
		return "not_granted"
	}
}

// RemindersList drives the reminder list screen.
type RemindersList struct {
	Base

	// Reminders is nil until the first successful Load.
	Reminders Observable[[]model.ReminderItem]

	AuthenticationState       Observable[AuthState]
	CurrentLocationPermission Observable[LocationPermission]
	AvailableToSaveReminder   Observable[bool]

	repo Repository
}

// NewRemindersList creates a list view model backed by repo.
func NewRemindersList(repo Repository, logger *slog.Logger) *RemindersList {
	vm := &RemindersList{repo: repo}
	vm.init(logger)
	return vm
}

// Load fetches every reminder and publishes them as display items. On failure
// the error message is shown verbatim. Either way ShowNoData is re-evaluated
// once the call completes. Load returns immediately; use Wait to block.
func (vm *RemindersList) Load() {
	vm.ShowLoading.Set(true)
	vm.launch(func(ctx context.Context) {
		res := result.Map(vm.repo.GetReminders(ctx), itemsFromReminders)
		vm.ShowLoading.Set(false)

		res.Match(
			func(items []model.ReminderItem) {
				vm.Reminders.Set(items)
			},
			func(msg string) {
				vm.log.Warn("loading reminders failed", "error", msg)
				vm.showSnackBar(msg)
			},
		)

		vm.invalidateShowNoData()
	})
}

// itemsFromReminders never returns nil so a successful load is told apart
// from one that has not happened.
func itemsFromReminders(list []model.Reminder) []model.ReminderItem {
	items := make([]model.ReminderItem, 0, len(list))
	for _, r := range list {
		items = append(items, model.ItemFromReminder(r))
	}
	return items
}

// invalidateShowNoData flags the empty state when no list, or an empty list,
// has been published.
func (vm *RemindersList) invalidateShowNoData() {
	vm.ShowNoData.Set(len(vm.Reminders.Get()) == 0)
}

// SetAuthenticationState records a sign-in or sign-out transition.
func (vm *RemindersList) SetAuthenticationState(s AuthState) {
	vm.AuthenticationState.Set(s)
}

// SetCurrentLocationPermission records the location access level.
func (vm *RemindersList) SetCurrentLocationPermission(p LocationPermission) {
	vm.CurrentLocationPermission.Set(p)
}

// SetUserAvailableToSaveReminders marks that every precondition for creating
// a reminder (sign-in, permissions) has been met.
func (vm *RemindersList) SetUserAvailableToSaveReminders() {
	vm.AvailableToSaveReminder.Set(true)
}
