package app

import (
	"sync"
	"testing"

	"github.com/KuekHaoYang/KClick/internal/core/clicker"
	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

type countingInjector struct {
	mu     sync.Mutex
	clicks int
}

func (c *countingInjector) Click() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicks++
	return nil
}

func (c *countingInjector) Close() error { return nil }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func newTestController(t *testing.T, mode clicker.Mode) (*Controller, *clicker.Engine, *shortcut.Engine) {
	t.Helper()

	clicks, err := clicker.NewEngine(clicker.Config{CPS: 1, Mode: mode}, &countingInjector{}, noopLogger{})
	if err != nil {
		t.Fatalf("clicker.NewEngine() error = %v", err)
	}
	t.Cleanup(func() { _ = clicks.Close() })

	triggers, err := shortcut.NewEngine(nil, noopLogger{})
	if err != nil {
		t.Fatalf("shortcut.NewEngine() error = %v", err)
	}
	triggers.SetShortcut(&shortcut.Shortcut{Kind: shortcut.KindKeyboard, Code: 6, Mods: shortcut.ModCommand})

	return NewController(clicks, triggers), clicks, triggers
}

func TestToggleModeTriggerCycle(t *testing.T) {
	_, clicks, triggers := newTestController(t, clicker.ModeToggle)

	triggers.HandleKeyDown(shortcut.SourceGlobal, 6, shortcut.ModCommand)
	if !clicks.IsClicking() {
		t.Fatalf("expected clicking after first trigger press")
	}

	// Release ends the physical press but not the clicking in toggle mode.
	triggers.HandleKeyUp(shortcut.SourceGlobal, 6, 0)
	if !clicks.IsClicking() {
		t.Fatalf("toggle mode must keep clicking across trigger release")
	}

	triggers.HandleKeyDown(shortcut.SourceGlobal, 6, shortcut.ModCommand)
	if clicks.IsClicking() {
		t.Fatalf("expected clicking stopped after second trigger press")
	}
}

func TestHoldModeTracksPhysicalPress(t *testing.T) {
	_, clicks, triggers := newTestController(t, clicker.ModeHold)

	triggers.HandleKeyDown(shortcut.SourceGlobal, 6, shortcut.ModCommand)
	if !clicks.IsClicking() {
		t.Fatalf("expected clicking while trigger held")
	}

	triggers.HandleKeyUp(shortcut.SourceGlobal, 6, 0)
	if clicks.IsClicking() {
		t.Fatalf("expected clicking stopped on trigger release in hold mode")
	}
}

func TestFnPausesClicking(t *testing.T) {
	_, clicks, triggers := newTestController(t, clicker.ModeToggle)

	triggers.HandleKeyDown(shortcut.SourceGlobal, 6, shortcut.ModCommand)
	triggers.HandleModifiers(true)

	if !clicks.IsPaused() {
		t.Fatalf("expected external pause while fn held")
	}
	if !clicks.IsClicking() {
		t.Fatalf("pause must not clear the clicking state")
	}

	triggers.HandleModifiers(false)
	if clicks.IsPaused() {
		t.Fatalf("expected pause cleared on fn release")
	}
}

func TestStatusSnapshot(t *testing.T) {
	controller, clicks, triggers := newTestController(t, clicker.ModeToggle)

	controller.SetRate(30)
	controller.SetMode(clicker.ModeHold)
	status := controller.Status()

	if status.Clicking || status.Paused || status.Recording {
		t.Fatalf("unexpected active flags in fresh status: %+v", status)
	}
	if status.CPS != 30 || status.Mode != clicker.ModeHold {
		t.Fatalf("unexpected settings in status: %+v", status)
	}
	if status.Shortcut != "⌘Z" {
		t.Fatalf("Shortcut descriptor = %q, want ⌘Z", status.Shortcut)
	}

	triggers.StartRecording()
	if !controller.Status().Recording {
		t.Fatalf("expected recording reflected in status")
	}

	clicks.Start()
	if !controller.Status().Clicking {
		t.Fatalf("expected clicking reflected in status")
	}
}
