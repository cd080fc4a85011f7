//go:build !linux

package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/KuekHaoYang/KClick/internal/adapters/hookinput"
	"github.com/KuekHaoYang/KClick/internal/core/clicker"
	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

func parseBackendChoice(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto", "hook":
		return "hook", nil
	default:
		return "", fmt.Errorf("invalid --backend %q (only auto|hook on this platform)", raw)
	}
}

func startBackend(cfg config, triggers *shortcut.Engine, logger *slog.Logger) (inputBackend, clicker.Injector, error) {
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
}

func parseRawPauseKey(value string) (uint16, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid --pause-key %q: expected a raw key code", value)
	}
	return uint16(parsed), nil
}

func listInputDevices(string) error {
	return fmt.Errorf("--list-devices is only supported on Linux")
}

func permissionDeniedHint() string {
	return "permission denied while subscribing to input events\n" +
		"  grant the terminal Accessibility and Input Monitoring permissions\n" +
		"  in System Settings > Privacy & Security, then restart kclick"
}
