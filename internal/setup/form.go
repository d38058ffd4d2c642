package setup

import (
	"fmt"
	"io"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/viewmodel"
)

// ReminderForm fills the save view model from terminal answers, the way the
// create-reminder screen and location picker would.
type ReminderForm struct {
	prompt *Prompter
	w      io.Writer
}

// NewReminderForm creates a form wired to the given I/O.
func NewReminderForm(r io.Reader, w io.Writer) *ReminderForm {
	return &ReminderForm{prompt: NewPrompter(r, w), w: w}
}

// Fill asks for the reminder fields and stores them on vm. Coordinates are
// applied as a selected point of interest only when both are given. Blank
// title or location are left nil so validation can report them.
func (f *ReminderForm) Fill(vm *viewmodel.SaveReminder) model.ReminderItem {
	fmt.Fprintf(f.w, "New reminder\n")

	vm.Title.Set(f.prompt.Optional("Title"))
	vm.Description.Set(f.prompt.Optional("Description"))
	location := f.prompt.Optional("Location name")

	lat := f.prompt.Float("Latitude", -90, 90)
	var lng *float64
	if lat != nil {
		lng = f.prompt.Float("Longitude", -180, 180)
	}

	if lat != nil && lng != nil {
		vm.SelectPointOfInterest(model.PointOfInterest{
			Name:      model.Deref(location),
			Latitude:  *lat,
			Longitude: *lng,
		})
	}
	// The POI name would replace a blank label with "", so restore the answer.
	vm.LocationLabel.Set(location)

	return vm.CurrentItem()
}
