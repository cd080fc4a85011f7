package main

import (
	"log/slog"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want slog.Level
	}{
		{raw: "debug", want: slog.LevelDebug},
		{raw: "INFO", want: slog.LevelInfo},
		{raw: "warning", want: slog.LevelWarn},
		{raw: "warn", want: slog.LevelWarn},
		{raw: " error ", want: slog.LevelError},
	}
	for _, tc := range cases {
		level, err := parseLogLevel(tc.raw)
		if err != nil {
			t.Fatalf("parseLogLevel(%q): %v", tc.raw, err)
		}
		if level != tc.want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", tc.raw, level, tc.want)
		}
	}

	if _, err := parseLogLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.cps != 0 {
		t.Fatalf("expected unset cps sentinel, got %v", cfg.cps)
	}
	if cfg.mode != "" {
		t.Fatalf("expected unset mode sentinel, got %q", cfg.mode)
	}
	if cfg.backend == "" || cfg.backend == "auto" {
		t.Fatalf("expected auto to resolve to a concrete backend, got %q", cfg.backend)
	}
	if cfg.settingsPath == "" {
		t.Fatalf("expected a default settings path")
	}
	if cfg.recordTimeout != 10*time.Second {
		t.Fatalf("unexpected record timeout: %v", cfg.recordTimeout)
	}
	if cfg.logLevel != slog.LevelInfo {
		t.Fatalf("unexpected log level: %v", cfg.logLevel)
	}
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	cases := [][]string{
		{"--cps", "-3"},
		{"--mode", "spam"},
		{"--backend", "carrier-pigeon"},
		{"--log-level", "loud"},
		{"extra-positional"},
	}
	for _, args := range cases {
		if _, err := parseConfig(args); err == nil {
			t.Fatalf("parseConfig(%v): expected error", args)
		}
	}
}
