package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/njoerd114/locationreminders/internal/config"
	"github.com/njoerd114/locationreminders/internal/geofence"
	"github.com/njoerd114/locationreminders/internal/state"
)

// Wizard walks the user through writing a config file.
type Wizard struct {
	prompt *Prompter
	logger *slog.Logger
	w      io.Writer
}

// NewWizard creates a Wizard wired to the given I/O and logger.
func NewWizard(r io.Reader, w io.Writer, logger *slog.Logger) *Wizard {
	return &Wizard{
		prompt: NewPrompter(r, w),
		logger: logger,
		w:      w,
	}
}

// Run asks for storage, geofence and telemetry settings and writes the result
// to cfgPath. An existing file is kept unless the user agrees to overwrite it.
func (wiz *Wizard) Run(_ context.Context, cfgPath string) (*config.Config, error) {
	fmt.Fprintf(wiz.w, "\nlocationreminders setup\n\n")

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintf(wiz.w, "  Existing config found at %s\n", cfgPath)
		if !wiz.prompt.Confirm("Overwrite existing configuration?", false) {
			fmt.Fprintf(wiz.w, "\n  Keeping existing config.\n")
			return config.Load(cfgPath)
		}
		fmt.Fprintf(wiz.w, "\n")
	}

	cfg := &config.Config{}

	fmt.Fprintf(wiz.w, "Step 1/3: Storage\n")
	dbPath, err := wiz.databasePath()
	if err != nil {
		return nil, err
	}
	cfg.DatabasePath = dbPath
	cfg.IOWorkers = wiz.prompt.Int("Concurrent storage workers", 4, 1, 64)
	fmt.Fprintf(wiz.w, "\n")

	fmt.Fprintf(wiz.w, "Step 2/3: Geofence\n")
	cfg.Geofence.RadiusMeters = wiz.radius()
	fmt.Fprintf(wiz.w, "\n")

	fmt.Fprintf(wiz.w, "Step 3/3: Telemetry\n")
	if wiz.prompt.Confirm("Export traces and metrics over OTLP?", false) {
		cfg.Telemetry = &config.TelemetryConfig{
			OTLPEndpoint: wiz.prompt.String("Collector endpoint", "localhost:4317"),
			Insecure:     wiz.prompt.Confirm("Disable TLS (local collector)?", true),
		}
	}
	fmt.Fprintf(wiz.w, "\n")

	if err := cfg.Write(cfgPath); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}
	wiz.logger.Debug("config written", "path", cfgPath)
	fmt.Fprintf(wiz.w, "  ✓ Config written to %s\n", cfgPath)
	fmt.Fprintf(wiz.w, "  Add a reminder with: locationreminders add\n\n")

	return cfg, nil
}

func (wiz *Wizard) databasePath() (string, error) {
	def, err := state.DefaultDBPath()
	if err != nil {
		return "", err
	}
	options := []string{
		"Default location (" + def + ")",
		"In memory (lost on exit)",
		"Custom path",
	}
	idx, err := wiz.prompt.Select("Where should reminders be stored", options)
	if err != nil {
		return "", fmt.Errorf("selecting database location: %w", err)
	}
	switch idx {
	case 0:
		return def, nil
	case 1:
		return state.MemoryPath, nil
	default:
		return wiz.prompt.String("Database path", ""), nil
	}
}

func (wiz *Wizard) radius() float64 {
	def := strconv.FormatFloat(geofence.DefaultRadiusMeters, 'f', -1, 64)
	for {
		val := wiz.prompt.String("Geofence radius in meters (1-100000)", def)
		r, err := strconv.ParseFloat(val, 64)
		if err == nil && r >= 1 && r <= 100_000 {
			return r
		}
		fmt.Fprintf(wiz.w, "  (invalid radius)\n")
	}
}
