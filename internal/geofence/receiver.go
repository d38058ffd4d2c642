package geofence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/result"
)

// Event is a geofence transition delivered by the platform. A non-zero
// ErrorCode means the event reports a failure and carries no transition.
type Event struct {
	Transition Transition
	RequestIDs []string
	ErrorCode  int
}

// Lookup resolves reminder IDs. Implemented by [reminders.Repository].
type Lookup interface {
	GetReminder(ctx context.Context, id string) result.Result[model.Reminder]
}

// Notifier shows a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, item model.ReminderItem) error
}

// Receiver turns geofence events into notifications.
type Receiver struct {
	lookup   Lookup
	notifier Notifier
	log      *slog.Logger

	tracer   trace.Tracer
	cntNotif metric.Int64Counter
}

// NewReceiver creates a Receiver.
func NewReceiver(lookup Lookup, notifier Notifier, logger *slog.Logger) *Receiver {
	return &Receiver{
		lookup:   lookup,
		notifier: notifier,
		log:      logger,
		tracer:   otel.Tracer(otelScope),
		cntNotif: mustCounter(otel.Meter(otelScope), logger, metricNotification, "Number of reminder notifications sent"),
	}
}

// Handle processes one event. Error events and non-enter transitions are
// dropped. Request IDs that no longer resolve to a reminder are skipped.
// Notifier failures are collected and returned together.
func (r *Receiver) Handle(ctx context.Context, ev Event) error {
	if ev.ErrorCode != 0 {
		r.log.Error("geofence event error", "code", ev.ErrorCode, "message", ErrorMessage(ev.ErrorCode))
		return nil
	}
	if ev.Transition != TransitionEnter {
		r.log.Debug("ignoring geofence transition", "transition", ev.Transition.String())
		return nil
	}

	ctx, span := r.tracer.Start(ctx, spanTransition,
		trace.WithAttributes(attribute.Int("geofence.request_ids", len(ev.RequestIDs))))
	defer span.End()

	var errs []error
	for _, id := range ev.RequestIDs {
		reminder, ok := r.lookup.GetReminder(ctx, id).Get()
		if !ok {
			r.log.Warn("geofence for unknown reminder", "id", id)
			continue
		}
		if err := r.notifier.Notify(ctx, model.ItemFromReminder(reminder)); err != nil {
			errs = append(errs, fmt.Errorf("notifying %s: %w", id, err))
			continue
		}
		r.cntNotif.Add(ctx, 1)
	}
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// LogNotifier prints one line per notification to w and logs it.
type LogNotifier struct {
	w   io.Writer
	log *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing to w.
func NewLogNotifier(w io.Writer, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{w: w, log: logger}
}

func (n *LogNotifier) Notify(_ context.Context, item model.ReminderItem) error {
	title := model.Deref(item.Title)
	location := model.Deref(item.Location)
	if _, err := fmt.Fprintf(n.w, "You have entered a geofence: %s @ %s\n", title, location); err != nil {
		return fmt.Errorf("writing notification: %w", err)
	}
	n.log.Info("reminder notification", "id", item.ID, "title", title, "location", location)
	return nil
}
