// Package config loads, validates and writes the locationreminders YAML
// configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/njoerd114/locationreminders/internal/state"
)

const (
	defaultRadiusMeters = 100
	maxRadiusMeters     = 100_000
	defaultIOWorkers    = 4
	maxIOWorkers        = 64
)

// Config holds the full application configuration loaded from YAML. Every
// field is optional; an empty file yields the defaults.
type Config struct {
	// DatabasePath is the SQLite file holding reminders. A leading "~/" is
	// expanded. Use ":memory:" for a throwaway database.
	// Defaults to ~/.local/share/locationreminders/reminders.db.
	DatabasePath string `yaml:"database_path"`

	// Geofence controls how fences are built for saved reminders.
	Geofence GeofenceConfig `yaml:"geofence"`

	// IOWorkers bounds how many storage calls run at once. 1–64, default 4.
	IOWorkers int `yaml:"io_workers"`

	// Telemetry configures optional OpenTelemetry export via OTLP gRPC.
	// Omit the block entirely to disable telemetry.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// GeofenceConfig holds fence settings.
type GeofenceConfig struct {
	// RadiusMeters is the fence radius. 1–100000, default 100.
	RadiusMeters float64 `yaml:"radius_meters"`
}

// TelemetryConfig holds optional OpenTelemetry settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC host:port of the OTLP collector (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// ServiceName overrides the OTel service.name attribute. Defaults to "locationreminders".
	ServiceName string `yaml:"service_name,omitempty"`

	// Headers are sent as gRPC metadata on every OTLP request, e.g.
	// Authorization: "Bearer <token>".
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultPath returns the default config file path: ~/.config/locationreminders/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "locationreminders", "config.yaml"), nil
}

// Default returns a validated config with every default applied.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default when it
// does not. Any other error is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

// Write validates c and writes it to path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %q: %w", path, err)
	}
	return nil
}

// validate applies defaults and checks ranges.
func (c *Config) validate() error {
	if c.DatabasePath == "" {
		p, err := state.DefaultDBPath()
		if err != nil {
			return err
		}
		c.DatabasePath = p
	}
	if rest, ok := strings.CutPrefix(c.DatabasePath, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("expanding database_path: %w", err)
		}
		c.DatabasePath = filepath.Join(home, rest)
	}

	if c.Geofence.RadiusMeters == 0 {
		c.Geofence.RadiusMeters = defaultRadiusMeters
	}
	if c.Geofence.RadiusMeters < 1 || c.Geofence.RadiusMeters > maxRadiusMeters {
		return fmt.Errorf("geofence.radius_meters %v must be between 1 and %d", c.Geofence.RadiusMeters, maxRadiusMeters)
	}

	if c.IOWorkers == 0 {
		c.IOWorkers = defaultIOWorkers
	}
	if c.IOWorkers < 1 || c.IOWorkers > maxIOWorkers {
		return fmt.Errorf("io_workers %d must be between 1 and %d", c.IOWorkers, maxIOWorkers)
	}

	if c.Telemetry != nil {
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is configured")
		}
	}

	return nil
}
