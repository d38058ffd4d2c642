// locationreminders stores reminders tied to places and raises them when a
// geofence around the place is entered.
//
// Usage:
//
//	locationreminders init [--config <path>]             # interactive config wizard
//	locationreminders list [--config <path>]             # list saved reminders
//	locationreminders add [--title ... --location ...]   # create a reminder
//	locationreminders get <id>                           # show one reminder
//	locationreminders clear                              # delete every reminder
//	locationreminders enter <id>...                      # simulate entering geofences
//	locationreminders mcp                                # serve MCP tools over stdio
//	locationreminders status                             # show config & database state
//	locationreminders version                            # print version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/njoerd114/locationreminders/internal/config"
	"github.com/njoerd114/locationreminders/internal/geofence"
	"github.com/njoerd114/locationreminders/internal/locator"
	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/reminders"
	"github.com/njoerd114/locationreminders/internal/setup"
	"github.com/njoerd114/locationreminders/internal/state"
	"github.com/njoerd114/locationreminders/internal/telemetry"
	"github.com/njoerd114/locationreminders/internal/toolserver"
	"github.com/njoerd114/locationreminders/internal/viewmodel"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// run dispatches to the subcommand named by the first argument.
func run() error {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "init":
		return runInit(args)
	case "list":
		return withApp(cmd, args, runList)
	case "add":
		return runAdd(args)
	case "get":
		return withApp(cmd, args, runGet)
	case "clear":
		return withApp(cmd, args, runClear)
	case "enter":
		return withApp(cmd, args, runEnter)
	case "mcp":
		return withApp(cmd, args, runMCP)
	case "status":
		return runStatus(args)
	case "version":
		fmt.Println("locationreminders", version)
		return nil
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return nil
	}
	return fmt.Errorf("unknown command %q, run 'locationreminders help' for usage", cmd)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "locationreminders: reminders that fire when you arrive somewhere")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  locationreminders init [--config ...]    Interactive config wizard")
	fmt.Fprintln(w, "  locationreminders list                   List saved reminders")
	fmt.Fprintln(w, "  locationreminders add [flags]            Create a reminder (prompts when no flags)")
	fmt.Fprintln(w, "  locationreminders get <id>               Show one reminder")
	fmt.Fprintln(w, "  locationreminders clear                  Delete every reminder")
	fmt.Fprintln(w, "  locationreminders enter <id>...          Simulate entering geofences")
	fmt.Fprintln(w, "  locationreminders mcp                    Serve MCP tools over stdio")
	fmt.Fprintln(w, "  locationreminders status                 Show config & database state")
	fmt.Fprintln(w, "  locationreminders version                Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Every command accepts --config <path> and --verbose.")
}

// --- Shared wiring -----------------------------------------------------------

// app is the object graph every data command works against.
type app struct {
	cfg  *config.Config
	log  *slog.Logger
	repo *reminders.Repository
	out  io.Writer
}

// commonFlags registers --config and --verbose on fs.
func commonFlags(fs *flag.FlagSet) (cfgPath *string, verbose *bool) {
	defaultCfg, _ := config.DefaultPath()
	cfgPath = fs.String("config", defaultCfg, "path to config.yaml")
	verbose = fs.Bool("verbose", false, "enable debug logging")
	return cfgPath, verbose
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// start loads config, sets up logging and optional telemetry, and opens the
// repository. The returned cleanup must always be called.
func start(cfgPath string, verbose bool) (*app, func(), error) {
	logger := newLogger(verbose)

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("loading config from %q: %w", cfgPath, err)
	}
	logger.Debug("config loaded", "database_path", cfg.DatabasePath, "io_workers", cfg.IOWorkers)

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Telemetry != nil {
		shutdownTel, err := telemetry.Setup(context.Background(), telemetry.Config{
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			Insecure:     cfg.Telemetry.Insecure,
			ServiceName:  cfg.Telemetry.ServiceName,
			Headers:      cfg.Telemetry.Headers,
		})
		if err != nil {
			logger.Error("telemetry setup failed, continuing without telemetry", "error", err)
		} else {
			logger = slog.New(telemetry.NewHandler(logger.Handler(), nil))
			slog.SetDefault(logger)
			logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
			cleanups = append(cleanups, func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTel(flushCtx); err != nil {
					logger.Error("telemetry shutdown error", "error", err)
				}
			})
		}
	}

	loc := locator.New(locator.Options{DBPath: cfg.DatabasePath, IOWorkers: cfg.IOWorkers}, logger)
	cleanups = append(cleanups, func() {
		if err := loc.Close(); err != nil {
			logger.Error("closing reminder database", "error", err)
		}
	})

	repo, err := loc.Provide(context.Background())
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return &app{cfg: cfg, log: logger, repo: repo, out: os.Stdout}, cleanup, nil
}

// withApp parses the common flags, builds the app and runs fn with the
// remaining positional arguments under a signal-aware context.
func withApp(name string, args []string, fn func(ctx context.Context, a *app, args []string) error) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := start(*cfgPath, *verbose)
	defer cleanup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return fn(ctx, a, fs.Args())
}

// printEffects renders queued view-model effects. It reports whether any of
// them was an error message.
func printEffects(w io.Writer, effects []viewmodel.Effect) (failed bool) {
	for _, ev := range effects {
		switch e := ev.(type) {
		case viewmodel.Toast:
			fmt.Fprintf(w, "✓ %s\n", e.Text)
		case viewmodel.SnackBar:
			fmt.Fprintf(w, "✗ %s\n", e.Text)
			failed = true
		case viewmodel.SnackBarCode:
			fmt.Fprintf(w, "✗ %s\n", e.Code)
			failed = true
		case viewmodel.Navigate:
			// Nothing to navigate in a terminal.
		}
	}
	return failed
}

func printReminder(w io.Writer, item model.ReminderItem) {
	fmt.Fprintf(w, "%s  %s @ %s", item.ID, model.Deref(item.Title), model.Deref(item.Location))
	if item.HasCoordinates() {
		fmt.Fprintf(w, " (%.5f, %.5f)", *item.Latitude, *item.Longitude)
	}
	fmt.Fprintln(w)
	if d := model.Deref(item.Description); d != "" {
		fmt.Fprintf(w, "    %s\n", d)
	}
}

// --- Subcommands -------------------------------------------------------------

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	_, err := setup.NewWizard(os.Stdin, os.Stdout, logger).Run(ctx, *cfgPath)
	return err
}

func runList(_ context.Context, a *app, _ []string) error {
	vm := viewmodel.NewRemindersList(a.repo, a.log)
	defer vm.Close()

	vm.Load()
	vm.Wait()

	if printEffects(a.out, vm.Effects.Drain()) {
		return errors.New("listing reminders failed")
	}
	if vm.ShowNoData.Get() {
		fmt.Fprintln(a.out, "No reminders.")
		return nil
	}
	for _, item := range vm.Reminders.Get() {
		printReminder(a.out, item)
	}
	return nil
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	title := fs.String("title", "", "reminder title")
	description := fs.String("description", "", "optional description")
	location := fs.String("location", "", "place name")
	lat := fs.Float64("lat", 0, "latitude in degrees")
	lng := fs.Float64("lng", 0, "longitude in degrees")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	latitude, longitude, err := coordinates(set, *lat, *lng)
	if err != nil {
		return err
	}

	a, cleanup, err := start(*cfgPath, *verbose)
	defer cleanup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	vm := viewmodel.NewSaveReminder(a.repo, a.log)
	defer vm.Close()

	var item model.ReminderItem
	if set["title"] || set["location"] {
		optional := func(name, v string) *string {
			if !set[name] {
				return nil
			}
			return &v
		}
		vm.Title.Set(optional("title", *title))
		vm.Description.Set(optional("description", *description))
		vm.LocationLabel.Set(optional("location", *location))
		vm.Latitude.Set(latitude)
		vm.Longitude.Set(longitude)
		item = vm.CurrentItem()
	} else {
		item = setup.NewReminderForm(os.Stdin, os.Stdout).Fill(vm)
	}

	vm.ValidateAndSave(item)
	vm.Wait()
	failed := printEffects(a.out, vm.Effects.Drain())

	handoff := geofence.NewHandoff(vm, geofence.NewLogRegistrar(a.log), a.cfg.Geofence.RadiusMeters, geofence.DefaultBackoff, a.log)
	for vm.PendingGeofenceRequests() > 0 {
		req, err := vm.NextGeofenceRequest(ctx)
		if err != nil {
			return err
		}
		if err := handoff.Register(ctx, req); err != nil {
			a.log.Warn("geofence not registered", "id", req.ID, "error", err)
		}
	}
	vm.Clear()

	if failed {
		return errors.New("reminder not saved")
	}
	fmt.Fprintf(a.out, "%s\n", item.ID)
	return nil
}

func runGet(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: locationreminders get <id>")
	}
	res := a.repo.GetReminder(ctx, args[0])
	r, ok := res.Get()
	if !ok {
		msg, _ := res.Message()
		return errors.New(msg)
	}
	printReminder(a.out, model.ItemFromReminder(r))
	return nil
}

// coordinates returns the --lat/--lng pair, or nils when neither was given.
func coordinates(set map[string]bool, lat, lng float64) (*float64, *float64, error) {
	switch {
	case set["lat"] && set["lng"]:
		return &lat, &lng, nil
	case set["lat"] || set["lng"]:
		return nil, nil, errors.New("--lat and --lng must be given together")
	default:
		return nil, nil, nil
	}
}

func runClear(ctx context.Context, a *app, _ []string) error {
	if err := a.repo.DeleteAllReminders(ctx); err != nil {
		return fmt.Errorf("clearing reminders: %w", err)
	}
	fmt.Fprintln(a.out, "All reminders deleted.")
	return nil
}

func runEnter(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: locationreminders enter <id>...")
	}
	receiver := geofence.NewReceiver(a.repo, geofence.NewLogNotifier(a.out, a.log), a.log)
	return receiver.Handle(ctx, geofence.Event{Transition: geofence.TransitionEnter, RequestIDs: args})
}

func runMCP(ctx context.Context, a *app, _ []string) error {
	save := viewmodel.NewSaveReminder(a.repo, a.log)
	defer save.Close()

	// Notifications go to stderr; stdout carries the MCP protocol.
	receiver := geofence.NewReceiver(a.repo, geofence.NewLogNotifier(os.Stderr, a.log), a.log)
	handoff := geofence.NewHandoff(save, geofence.NewLogRegistrar(a.log), a.cfg.Geofence.RadiusMeters, geofence.DefaultBackoff, a.log)

	go func() {
		if err := handoff.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("geofence handoff stopped", "error", err)
		}
	}()

	srv := toolserver.NewServer(version, a.repo, save, receiver, a.log)
	a.log.Info("serving MCP over stdio")
	return srv.ServeStdio()
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath, _ := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("locationreminders status")
	fmt.Println("────────────────────────")

	cfg, err := config.LoadOrDefault(*cfgPath)
	switch {
	case err != nil:
		fmt.Printf("  Config:    %s (invalid: %v)\n", *cfgPath, err)
		return nil
	case fileExists(*cfgPath):
		fmt.Printf("  Config:    %s ✓\n", *cfgPath)
	default:
		fmt.Printf("  Config:    not found, using defaults (%s)\n", *cfgPath)
	}
	fmt.Printf("  Radius:    %g m\n", cfg.Geofence.RadiusMeters)
	fmt.Printf("  Workers:   %d\n", cfg.IOWorkers)
	if cfg.Telemetry != nil {
		fmt.Printf("  Telemetry: %s\n", cfg.Telemetry.OTLPEndpoint)
	} else {
		fmt.Printf("  Telemetry: off\n")
	}

	if cfg.DatabasePath == state.MemoryPath {
		fmt.Printf("  Database:  in memory\n")
		return nil
	}
	info, err := os.Stat(cfg.DatabasePath)
	if err != nil {
		fmt.Printf("  Database:  not found (%s)\n", cfg.DatabasePath)
		return nil
	}

	store, err := state.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database at %q: %w", cfg.DatabasePath, err)
	}
	defer store.Close()
	n, err := store.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("  Database:  %s (%s, %d reminder(s))\n", cfg.DatabasePath, humanSize(info.Size()), n)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// humanSize returns a human-readable file size string.
func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
