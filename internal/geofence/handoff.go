package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/njoerd114/locationreminders/internal/model"
)

const (
	otelScope          = "locationreminders/geofence"
	spanRegister       = "geofence.register"
	spanTransition     = "geofence.transition"
	metricRegistered   = "locationreminders.geofence.registered"
	metricFailed       = "locationreminders.geofence.failed"
	metricNotification = "locationreminders.geofence.notifications"
)

// Registrar adds fences to the platform geofencing service.
type Registrar interface {
	AddGeofence(ctx context.Context, f Fence) error
}

// Source yields reminders waiting for a fence and is told when one has been
// registered. Implemented by [viewmodel.SaveReminder].
type Source interface {
	NextGeofenceRequest(ctx context.Context) (model.ReminderItem, error)
	OnGeofenceSaved()
}

// LogRegistrar stands in for a platform geofencing service. It logs every
// fence and remembers it by request ID.
type LogRegistrar struct {
	log *slog.Logger

	mu     sync.Mutex
	fences map[string]Fence
}

// NewLogRegistrar creates an empty LogRegistrar.
func NewLogRegistrar(logger *slog.Logger) *LogRegistrar {
	return &LogRegistrar{log: logger, fences: make(map[string]Fence)}
}

func (r *LogRegistrar) AddGeofence(_ context.Context, f Fence) error {
	r.mu.Lock()
	r.fences[f.RequestID] = f
	r.mu.Unlock()

	r.log.Info("geofence added",
		"request_id", f.RequestID,
		"lat", f.Latitude,
		"lng", f.Longitude,
		"radius_m", f.RadiusMeters,
		"transitions", f.Transitions.String(),
	)
	return nil
}

// Fences returns the registered fences in no particular order.
func (r *LogRegistrar) Fences() []Fence {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Fence, 0, len(r.fences))
	for _, f := range r.fences {
		out = append(out, f)
	}
	return out
}

// Handoff registers a fence for every reminder the save flow accepts.
type Handoff struct {
	source  Source
	reg     Registrar
	radius  float64
	backoff Backoff
	log     *slog.Logger

	tracer        trace.Tracer
	cntRegistered metric.Int64Counter
	cntFailed     metric.Int64Counter
}

// NewHandoff creates a Handoff. A non-positive radius uses
// DefaultRadiusMeters.
func NewHandoff(source Source, reg Registrar, radiusMeters float64, backoff Backoff, logger *slog.Logger) *Handoff {
	meter := otel.Meter(otelScope)
	return &Handoff{
		source:  source,
		reg:     reg,
		radius:  radiusMeters,
		backoff: backoff,
		log:     logger,

		tracer:        otel.Tracer(otelScope),
		cntRegistered: mustCounter(meter, logger, metricRegistered, "Number of geofences registered"),
		cntFailed:     mustCounter(meter, logger, metricFailed, "Number of geofence registrations that failed"),
	}
}

func mustCounter(meter metric.Meter, logger *slog.Logger, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		logger.Error("creating OTel counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

// Register builds and registers the fence for item, then acknowledges it on
// the source. The source is not acknowledged when registration fails.
func (h *Handoff) Register(ctx context.Context, item model.ReminderItem) error {
	ctx, span := h.tracer.Start(ctx, spanRegister, trace.WithAttributes(attribute.String("reminder.id", item.ID)))
	defer span.End()

	fence, err := NewFence(item, h.radius)
	if err == nil {
		err = h.backoff.retry(ctx, func() error { return h.reg.AddGeofence(ctx, fence) })
	}
	if err != nil {
		h.cntFailed.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("registering geofence for %s: %w", item.ID, err)
	}

	h.cntRegistered.Add(ctx, 1)
	h.source.OnGeofenceSaved()
	return nil
}

// Run consumes geofence requests until ctx is cancelled. Failed registrations
// are logged and do not stop the loop.
func (h *Handoff) Run(ctx context.Context) error {
	for {
		item, err := h.source.NextGeofenceRequest(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				h.log.Debug("geofence handoff stopping")
			}
			return err
		}
		if err := h.Register(ctx, item); err != nil {
			h.log.Error("geofence registration failed", "id", item.ID, "error", err)
			continue
		}
		h.log.Debug("geofence registered", "id", item.ID)
	}
}
