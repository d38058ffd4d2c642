// Package model defines the reminder types shared by the storage layer, the
// repository, the view models and the geofence collaborators.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Reminder is the persisted representation of a location reminder. Every
// field except ID is optional; a nil pointer is stored as SQL NULL.
type Reminder struct {
	// ID is the sole lookup key. It is assigned once at construction and
	// never changes afterwards.
	ID string `db:"id" json:"id"`

	Title       *string `db:"title" json:"title,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`

	// Location is the human-readable label of the selected place, e.g.
	// "Googleplex" or a dropped-pin address.
	Location *string `db:"location" json:"location,omitempty"`

	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
}

// NewReminder creates a Reminder with a freshly generated ID.
func NewReminder(title, description, location *string, latitude, longitude *float64) Reminder {
	return Reminder{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Location:    location,
		Latitude:    latitude,
		Longitude:   longitude,
	}
}

// String returns a short description for log lines.
func (r Reminder) String() string {
	return fmt.Sprintf("%s (%s)", Deref(r.Title), r.ID)
}

// ReminderItem is the presentation-side projection of a Reminder. View models
// build a fresh slice of items on every reload.
type ReminderItem struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	ID          string   `json:"id"`
}

// NewReminderItem creates an item with a freshly generated ID, the way the
// save screen does before the first save.
func NewReminderItem(title, description, location *string, latitude, longitude *float64) ReminderItem {
	return ItemFromReminder(NewReminder(title, description, location, latitude, longitude))
}

// ItemFromReminder copies a persisted reminder into a display item.
func ItemFromReminder(r Reminder) ReminderItem {
	return ReminderItem{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ID:          r.ID,
	}
}

// ToReminder converts the item back into its persisted form. An item without
// an ID gets one generated here.
func (i ReminderItem) ToReminder() Reminder {
	id := i.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Reminder{
		ID:          id,
		Title:       i.Title,
		Description: i.Description,
		Location:    i.Location,
		Latitude:    i.Latitude,
		Longitude:   i.Longitude,
	}
}

// HasCoordinates reports whether both latitude and longitude are set.
func (i ReminderItem) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// PointOfInterest is a place picked on the map by the location picker.
type PointOfInterest struct {
	Name      string  `json:"name"`
	PlaceID   string  `json:"place_id,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// --- pointer helpers ---------------------------------------------------------

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Deref returns the pointed-to value, or the zero value for nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// IsBlank reports whether s is nil or the empty string.
func IsBlank(s *string) bool {
	return s == nil || *s == ""
}
