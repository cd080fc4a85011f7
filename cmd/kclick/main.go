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
	"strings"
	"syscall"
	"time"

	"github.com/KuekHaoYang/KClick/internal/app"
	"github.com/KuekHaoYang/KClick/internal/core/clicker"
	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
	"github.com/KuekHaoYang/KClick/internal/settings"
)

type config struct {
	cps           float64
	mode          string
	backend       string
	devicePath    string
	pauseKey      string
	settingsPath  string
	record        bool
	recordTimeout time.Duration
	listDevices   bool
	logLevel      slog.Level
}

// inputBackend is the scoped observation resource: Start subscribes the
// process-wide hooks and Stop is guaranteed to release them.
type inputBackend interface {
	Start() error
	Stop()
	CaptureNext(timeout time.Duration) (shortcut.Shortcut, error)
}

func newSlogLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

func parseConfig(args []string) (config, error) {
	cfg := config{}
	flags := flag.NewFlagSet("kclick", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var backendRaw string
	var logLevelRaw string

	flags.Float64Var(&cfg.cps, "cps", 0, "Clicks per second (default: persisted value, initially 10).")
	flags.StringVar(&cfg.mode, "mode", "", "Click mode: toggle or hold (default: persisted value, initially toggle).")
	flags.StringVar(&backendRaw, "backend", "auto", "Input backend. auto|hook on all platforms; Linux adds x11|evdev.")
	flags.StringVar(&cfg.devicePath, "device", "", "Input event device path for the evdev backend, e.g. /dev/input/event4.")
	flags.StringVar(&cfg.pauseKey, "pause-key", "", "Pause modifier key for the active backend (evdev: KEY_* name).")
	flags.StringVar(&cfg.settingsPath, "settings", "", "Settings file path (default: user config dir).")
	flags.BoolVar(&cfg.record, "record", false, "Record the next key/button press as the trigger shortcut, then keep running.")
	flags.DurationVar(&cfg.recordTimeout, "record-timeout", 10*time.Second, "How long to wait for input while recording.")
	flags.BoolVar(&cfg.listDevices, "list-devices", false, "Print available input devices and exit.")
	flags.StringVar(&logLevelRaw, "log-level", "info", "Log verbosity (default: info). Allowed: debug, info, warning, error.")

	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	if flags.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if cfg.cps < 0 {
		return cfg, fmt.Errorf("--cps must be >= %v", clicker.MinCPS)
	}
	if cfg.mode != "" {
		if _, err := clicker.ParseMode(cfg.mode); err != nil {
			return cfg, err
		}
	}

	backendChoice, err := parseBackendChoice(backendRaw)
	if err != nil {
		return cfg, err
	}
	cfg.backend = backendChoice

	parsedLevel, err := parseLogLevel(logLevelRaw)
	if err != nil {
		return cfg, err
	}
	cfg.logLevel = parsedLevel

	if cfg.settingsPath == "" {
		cfg.settingsPath = settings.DefaultPath()
	}
	return cfg, nil
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func run(args []string, stderr io.Writer) int {
	cfg, err := parseConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if cfg.listDevices {
		if err := listInputDevices(cfg.backend); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	logger := newSlogLogger(cfg.logLevel)
	store := settings.Open(cfg.settingsPath, logger)

	triggers, err := shortcut.NewEngine(store, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	backend, injector, err := startBackend(cfg, triggers, logger)
	if err != nil {
		// Without global observation the trigger mechanism cannot
		// function; this is the one fatal startup failure.
		if isPermissionError(err) {
			fmt.Fprintln(stderr, permissionDeniedHint())
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer backend.Stop()

	clicks, err := clicker.NewEngine(
		clicker.Config{CPS: store.Rate(), Mode: store.Mode(), Store: store},
		injector,
		logger,
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = clicks.Close() }()

	if cfg.cps > 0 {
		clicks.SetRate(cfg.cps)
	}
	if cfg.mode != "" {
		mode, _ := clicker.ParseMode(cfg.mode)
		clicks.SetMode(mode)
	}

	controller := app.NewController(clicks, triggers)

	if cfg.record {
		logger.Info("Recording shortcut: press a key or a non-primary mouse button")
		recorded, err := backend.CaptureNext(cfg.recordTimeout)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		triggers.SetShortcut(&recorded)
	}

	status := controller.Status()
	logger.Info("Backend", "name", cfg.backend)
	logger.Info("Shortcut", "binding", status.Shortcut)
	logger.Info("Rate", "cps", status.CPS)
	logger.Info("Mode", "name", status.Mode.String())
	if status.Shortcut == "Not Set" {
		logger.Warn("No shortcut configured; run with --record to bind one")
	}
	logger.Info("Press the shortcut to click. Press Ctrl+C to stop")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
