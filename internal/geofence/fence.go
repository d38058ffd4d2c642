// Package geofence turns saved reminders into circular fences, hands them to a
// platform [Registrar], and resolves fence transitions back into reminder
// notifications through the repository.
package geofence

import (
	"errors"
	"fmt"
	"time"

	"github.com/njoerd114/locationreminders/internal/model"
)

// DefaultRadiusMeters is the fence radius used when none is configured.
const DefaultRadiusMeters = 100.0

// NeverExpire marks a fence that stays registered until removed.
const NeverExpire time.Duration = -1

// Transition is a fence crossing type. Values form a bit set.
type Transition int

const (
	TransitionEnter Transition = 1 << iota
	TransitionExit
	TransitionDwell
)

// String returns the transition name.
func (t Transition) String() string {
	switch t {
	case TransitionEnter:
		return "enter"
	case TransitionExit:
		return "exit"
	case TransitionDwell:
		return "dwell"
	default:
		return fmt.Sprintf("transition(%d)", int(t))
	}
}

// ErrNoCoordinates is returned by NewFence for items without a position.
var ErrNoCoordinates = errors.New("reminder has no coordinates")

// Fence is a circular region tied to one reminder. RequestID is the reminder
// ID, which is how transitions are mapped back to reminders.
type Fence struct {
	RequestID    string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Expiration   time.Duration
	Transitions  Transition
}

// NewFence builds an enter-only fence around item. A non-positive radius
// falls back to DefaultRadiusMeters.
func NewFence(item model.ReminderItem, radiusMeters float64) (Fence, error) {
	if !item.HasCoordinates() {
		return Fence{}, fmt.Errorf("building fence for %s: %w", item.ID, ErrNoCoordinates)
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return Fence{
		RequestID:    item.ID,
		Latitude:     *item.Latitude,
		Longitude:    *item.Longitude,
		RadiusMeters: radiusMeters,
		Expiration:   NeverExpire,
		Transitions:  TransitionEnter,
	}, nil
}

// Platform status codes reported with failed geofence events.
const (
	CodeNotAvailable          = 1000
	CodeTooManyGeofences      = 1001
	CodeTooManyPendingIntents = 1002
)

// ErrorMessage maps a platform status code to a user-facing message.
func ErrorMessage(code int) string {
	switch code {
	case CodeNotAvailable:
		return "Geofence service is not available now. Go to Settings>Location>Mode and choose High accuracy."
	case CodeTooManyGeofences:
		return "Your app has registered too many geofences."
	case CodeTooManyPendingIntents:
		return "You have provided too many PendingIntents to the addGeofences() call."
	default:
		return "Unknown error: the Geofence service is not available now."
	}
}
