package reminders

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/result"
)

const (
	otelScope      = "locationreminders/reminders"
	spanList       = "reminders.list"
	spanSave       = "reminders.save"
	spanGet        = "reminders.get"
	spanDeleteAll  = "reminders.delete_all"
	metricInFlight = "locationreminders.repository.inflight"
)

// Repository is the only reminder dependency view models are given. It
// forwards every call unchanged to a [DataSource] and brackets each call with
// the [IdlingResource] and a trace span. Failure semantics are exactly those of
// the wrapped data source.
type Repository struct {
	source DataSource
	idle   *IdlingResource
	tracer trace.Tracer
	log    *slog.Logger
}

// NewRepository wraps source. Instruments come from the global OTel providers,
// which are no-ops unless telemetry was set up.
func NewRepository(source DataSource, logger *slog.Logger) *Repository {
	meter := otel.Meter(otelScope)

	gauge, err := meter.Int64UpDownCounter(metricInFlight,
		metric.WithDescription("Number of repository calls currently running"))
	if err != nil {
		logger.Error("creating OTel up/down counter", "name", metricInFlight, "error", err)
		gauge = noop.Int64UpDownCounter{}
	}

	return &Repository{
		source: source,
		idle:   NewIdlingResource(gauge),
		tracer: otel.Tracer(otelScope),
		log:    logger,
	}
}

// IdlingResource exposes the in-flight counter for test synchronisation.
func (r *Repository) IdlingResource() *IdlingResource { return r.idle }

// begin opens a span and bumps the in-flight counter. The returned func must be
// deferred so the counter drops on every exit path, panics included.
func (r *Repository) begin(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, func()) {
	ctx, span := r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	r.idle.Increment(ctx)
	return ctx, span, func() {
		r.idle.Decrement(ctx)
		span.End()
	}
}

// GetReminders implements [DataSource].
func (r *Repository) GetReminders(ctx context.Context) result.Result[[]model.Reminder] {
	ctx, span, end := r.begin(ctx, spanList)
	defer end()

	res := r.source.GetReminders(ctx)
	res.Match(
		func(list []model.Reminder) { span.SetAttributes(attribute.Int("reminders.count", len(list))) },
		func(msg string) { span.SetStatus(codes.Error, msg) },
	)
	return res
}

// SaveReminder implements [DataSource].
func (r *Repository) SaveReminder(ctx context.Context, reminder model.Reminder) error {
	ctx, span, end := r.begin(ctx, spanSave, attribute.String("reminder.id", reminder.ID))
	defer end()

	err := r.source.SaveReminder(ctx, reminder)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// GetReminder implements [DataSource].
func (r *Repository) GetReminder(ctx context.Context, id string) result.Result[model.Reminder] {
	ctx, span, end := r.begin(ctx, spanGet, attribute.String("reminder.id", id))
	defer end()

	res := r.source.GetReminder(ctx, id)
	if msg, isErr := res.Message(); isErr {
		span.SetStatus(codes.Error, msg)
	}
	return res
}

// DeleteAllReminders implements [DataSource].
func (r *Repository) DeleteAllReminders(ctx context.Context) error {
	ctx, span, end := r.begin(ctx, spanDeleteAll)
	defer end()

	err := r.source.DeleteAllReminders(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		r.log.Info("all reminders deleted")
	}
	return err
}
