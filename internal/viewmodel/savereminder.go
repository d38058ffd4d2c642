package viewmodel

import (
	"context"
	"log/slog"

	"github.com/njoerd114/locationreminders/internal/model"
)

// SavedMessage is the confirmation shown after a reminder is stored.
const SavedMessage = "Reminder Saved !"

// Validate checks the fields a reminder needs before it can be saved. Title
// is checked before location; the first failure wins.
func Validate(item model.ReminderItem) (MessageCode, bool) {
	if model.IsBlank(item.Title) {
		return ErrEnterTitle, false
	}
	if model.IsBlank(item.Location) {
		return ErrSelectLocation, false
	}
	return 0, true
}

// SaveReminder drives the create-reminder screen and the location picker that
// feeds it. The same instance is shared by both screens, so Clear must run when
// the form is torn down.
type SaveReminder struct {
	Base

	Title         Observable[*string]
	Description   Observable[*string]
	LocationLabel Observable[*string]
	SelectedPOI   Observable[*model.PointOfInterest]
	Latitude      Observable[*float64]
	Longitude     Observable[*float64]

	// Reminder is the item most recently accepted by ValidateAndSave.
	Reminder Observable[*model.ReminderItem]

	LocationPermissionGranted   Observable[bool]
	LocationPermissionActivated Observable[bool]
	MarkerSelected              Observable[bool]

	// CanSaveGeofence turns true as soon as validation passes and stays true
	// until OnGeofenceSaved, even when the save itself fails.
	CanSaveGeofence Observable[bool]

	SaveRequested            EventQueue[struct{}]
	ConfirmLocationRequested EventQueue[struct{}]

	geofenceRequests EventQueue[model.ReminderItem]

	repo Repository
}

// NewSaveReminder creates a save view model backed by repo.
func NewSaveReminder(repo Repository, logger *slog.Logger) *SaveReminder {
	vm := &SaveReminder{repo: repo}
	vm.init(logger)
	return vm
}

// ValidateAndSave validates item and, when it passes, flags the geofence,
// queues a geofence request and saves the reminder in the background.
// Validation failures surface as a SnackBarCode and nothing is persisted.
func (vm *SaveReminder) ValidateAndSave(item model.ReminderItem) {
	if code, ok := Validate(item); !ok {
		vm.showSnackBarCode(code)
		return
	}

	vm.CanSaveGeofence.Set(true)
	vm.Reminder.Set(&item)
	vm.geofenceRequests.Send(item)
	vm.save(item)
}

func (vm *SaveReminder) save(item model.ReminderItem) {
	vm.ShowLoading.Set(true)
	vm.launch(func(ctx context.Context) {
		err := vm.repo.SaveReminder(ctx, item.ToReminder())
		vm.ShowLoading.Set(false)
		if err != nil {
			vm.log.Error("saving reminder failed", "id", item.ID, "error", err)
			vm.showSnackBar(err.Error())
			return
		}
		vm.showToast(SavedMessage)
		vm.navigate(NavigateBack)
	})
}

// CurrentItem assembles a reminder item from the form fields. Every call
// generates a new ID.
func (vm *SaveReminder) CurrentItem() model.ReminderItem {
	return model.NewReminderItem(
		vm.Title.Get(),
		vm.Description.Get(),
		vm.LocationLabel.Get(),
		vm.Latitude.Get(),
		vm.Longitude.Get(),
	)
}

// SelectPointOfInterest stores the place picked on the map and fills the
// location label and coordinates from it.
func (vm *SaveReminder) SelectPointOfInterest(poi model.PointOfInterest) {
	vm.SelectedPOI.Set(&poi)
	vm.LocationLabel.Set(model.Ptr(poi.Name))
	vm.Latitude.Set(model.Ptr(poi.Latitude))
	vm.Longitude.Set(model.Ptr(poi.Longitude))
	vm.MarkerSelected.Set(true)
}

// Clear resets the form so stale values do not leak into the next reminder.
func (vm *SaveReminder) Clear() {
	vm.Title.Set(nil)
	vm.Description.Set(nil)
	vm.LocationLabel.Set(nil)
	vm.SelectedPOI.Set(nil)
	vm.Latitude.Set(nil)
	vm.Longitude.Set(nil)
	vm.LocationPermissionGranted.Set(false)
}

// ClearLocationScreen resets the picker state when the map is torn down.
func (vm *SaveReminder) ClearLocationScreen() {
	vm.MarkerSelected.Set(false)
	vm.ConfirmLocationRequested.Drain()
}

// RequestSave queues a save-requested event for the form screen.
func (vm *SaveReminder) RequestSave() { vm.SaveRequested.Send(struct{}{}) }

// ConfirmLocation queues a confirm-location event for the picker screen.
func (vm *SaveReminder) ConfirmLocation() { vm.ConfirmLocationRequested.Send(struct{}{}) }

// NextGeofenceRequest blocks until a validated reminder is waiting for its
// geofence, and removes it from the queue.
func (vm *SaveReminder) NextGeofenceRequest(ctx context.Context) (model.ReminderItem, error) {
	return vm.geofenceRequests.Next(ctx)
}

// PendingGeofenceRequests returns the number of queued geofence requests.
func (vm *SaveReminder) PendingGeofenceRequests() int {
	return vm.geofenceRequests.Len()
}

// OnGeofenceSaved clears CanSaveGeofence once the fence is registered.
func (vm *SaveReminder) OnGeofenceSaved() {
	vm.CanSaveGeofence.Set(false)
}

func (vm *SaveReminder) SetLocationPermissionGranted()    { vm.LocationPermissionGranted.Set(true) }
func (vm *SaveReminder) SetLocationPermissionNotGranted() { vm.LocationPermissionGranted.Set(false) }
func (vm *SaveReminder) SetLocationPermissionActivated()  { vm.LocationPermissionActivated.Set(true) }
