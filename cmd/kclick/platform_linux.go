//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KuekHaoYang/KClick/internal/adapters/evdevinput"
	"github.com/KuekHaoYang/KClick/internal/adapters/hookinput"
	"github.com/KuekHaoYang/KClick/internal/adapters/x11input"
	"github.com/KuekHaoYang/KClick/internal/core/clicker"
	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

// parseBackendChoice resolves the --backend flag to a concrete backend.
// Sessions without a display cannot host an event tap, so auto prefers the
// raw evdev path there.
func parseBackendChoice(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hook", "x11", "evdev":
		return strings.ToLower(strings.TrimSpace(raw)), nil
	case "", "auto":
	default:
		return "", fmt.Errorf("invalid --backend %q (expected auto|hook|x11|evdev)", raw)
	}

	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") {
		return "evdev", nil
	}
	if os.Getenv("DISPLAY") != "" {
		return "hook", nil
	}
	return "evdev", nil
}

func startBackend(cfg config, triggers *shortcut.Engine, logger *slog.Logger) (inputBackend, clicker.Injector, error) {
	switch cfg.backend {
	case "hook":
		pauseKey, err := parseRawPauseKey(cfg.pauseKey)
		if err != nil {
			return nil, nil, err
		}
		rt, err := hookinput.NewRuntime(triggers, hookinput.Config{PauseKey: pauseKey}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := rt.Start(); err != nil {
			return nil, nil, err
		}
		return rt, hookinput.NewInjector(), nil

	case "x11":
		var keysyms []string
		if cfg.pauseKey != "" {
			for _, name := range strings.Split(cfg.pauseKey, ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					keysyms = append(keysyms, trimmed)
				}
			}
		}
		rt, err := x11input.NewRuntime(triggers, x11input.Config{PauseKeysyms: keysyms}, logger)
		if err != nil {
			return nil, nil, err
		}
		// X11 grabs are per-keycode; rearm them whenever the binding
		// changes.
		triggers.OnShortcutChange(func(*shortcut.Shortcut) { rt.Rebind() })
		if err := rt.Start(); err != nil {
			rt.Stop()
			return nil, nil, err
		}
		return &x11Backend{rt: rt}, rt.Injector(), nil

	case "evdev":
		var pauseCode uint16
		if cfg.pauseKey != "" {
			code, err := evdevinput.ParseCode(cfg.pauseKey)
			if err != nil {
				return nil, nil, err
			}
			pauseCode = code
		}
		rt, err := evdevinput.NewRuntime(triggers, evdevinput.Config{
			DevicePath: cfg.devicePath,
			PauseCode:  pauseCode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		injector, err := evdevinput.NewInjector()
		if err != nil {
			rt.Stop()
			return nil, nil, err
		}
		if err := rt.Start(); err != nil {
			_ = injector.Close()
			rt.Stop()
			return nil, nil, err
		}
		return rt, injector, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", cfg.backend)
	}
}

// x11Backend adapts the X11 runtime to the capture-capable backend surface;
// recording there runs on its own short-lived connection.
type x11Backend struct {
	rt *x11input.Runtime
}

func (b *x11Backend) Start() error { return nil }

func (b *x11Backend) Stop() { b.rt.Stop() }

func (b *x11Backend) CaptureNext(timeout time.Duration) (shortcut.Shortcut, error) {
	return x11input.CaptureNext(timeout)
}

func parseRawPauseKey(value string) (uint16, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid --pause-key %q: expected a raw key code on this backend", value)
	}
	return uint16(parsed), nil
}

func listInputDevices(backend string) error {
	devices, err := evdevinput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		var tags []string
		if dev.IsPointer {
			tags = append(tags, "pointer")
		}
		if dev.IsVirtual {
			tags = append(tags, "virtual")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Printf("%s\t%s%s\n", dev.Path, dev.Name, suffix)
	}
	return nil
}

func permissionDeniedHint() string {
	return "permission denied while subscribing to input events\n" +
		"  - evdev backend: add your user to the 'input' group or run with elevated privileges,\n" +
		"    and make sure /dev/uinput is writable for click injection\n" +
		"  - hook/x11 backends: make sure the X server is reachable (DISPLAY)"
}
