package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	otellog "go.opentelemetry.io/otel/log"
)

// Handler sends every slog record to a base handler and to an OTel log
// bridge, so console output is unchanged when telemetry is on. The base
// handler's level gates both.
type Handler struct {
	base slog.Handler
	otel slog.Handler
}

// NewHandler wraps base. A nil provider uses the global logger provider.
func NewHandler(base slog.Handler, provider otellog.LoggerProvider) *Handler {
	var opts []otelslog.Option
	if provider != nil {
		opts = append(opts, otelslog.WithLoggerProvider(provider))
	}
	return &Handler{
		base: base,
		otel: otelslog.NewHandler(DefaultServiceName, opts...),
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if h.otel.Enabled(ctx, r.Level) {
		errs = append(errs, h.otel.Handle(ctx, r.Clone()))
	}
	errs = append(errs, h.base.Handle(ctx, r))
	return errors.Join(errs...)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{base: h.base.WithAttrs(attrs), otel: h.otel.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{base: h.base.WithGroup(name), otel: h.otel.WithGroup(name)}
}
