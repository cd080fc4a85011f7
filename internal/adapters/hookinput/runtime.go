// Package hookinput is the portable input backend. It observes system-wide
// keyboard and mouse events through the gohook event tap and feeds them to
// the shortcut engine; clicks are synthesized through robotgo.
package hookinput

import (
	"fmt"
	"sync"
	"time"

	hook "github.com/robotn/gohook"

	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

// PauseKeyFn is the default pause modifier: the fn key's virtual code.
const PauseKeyFn uint16 = 63

type Config struct {
	// PauseKey is the raw key code treated as the pause modifier.
	// Defaults to fn when zero.
	PauseKey uint16
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Runtime owns the global event tap. Observed events are routed into the
// shortcut engine on the tap's delivery goroutine, so all transitions from
// this backend arrive in order.
type Runtime struct {
	engine   *shortcut.Engine
	logger   Logger
	pauseKey uint16

	mu        sync.Mutex
	mods      shortcut.Modifiers
	captureCh chan shortcut.Shortcut

	stopOnce sync.Once
	doneCh   chan struct{}
}

func NewRuntime(engine *shortcut.Engine, cfg Config, logger Logger) (*Runtime, error) {
	if engine == nil {
		return nil, fmt.Errorf("shortcut engine is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pauseKey := cfg.PauseKey
	if pauseKey == 0 {
		pauseKey = PauseKeyFn
	}
	return &Runtime{
		engine:   engine,
		logger:   logger,
		pauseKey: pauseKey,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start installs the global tap. Failure to subscribe is returned as an
// error; without the tap the trigger mechanism cannot function at all.
func (r *Runtime) Start() error {
	events := hook.Start()
	if events == nil {
		return fmt.Errorf("failed to install global event hook")
	}
	go r.eventLoop(events)
	return nil
}

// Stop deregisters the tap. The hook is a process-wide resource; it must be
// released explicitly rather than left to garbage collection.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		hook.End()
		<-r.doneCh
	})
}

// CaptureNext consumes the next qualifying key or button press as a
// recorded binding instead of forwarding it, mirroring the in-app recording
// path for terminal use.
func (r *Runtime) CaptureNext(timeout time.Duration) (shortcut.Shortcut, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ch := make(chan shortcut.Shortcut, 1)
	r.mu.Lock()
	if r.captureCh != nil {
		r.mu.Unlock()
		return shortcut.Shortcut{}, fmt.Errorf("capture already in progress")
	}
	r.captureCh = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.captureCh = nil
		r.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s := <-ch:
		return s, nil
	case <-timer.C:
		return shortcut.Shortcut{}, fmt.Errorf("timed out waiting for key/button input")
	case <-r.doneCh:
		return shortcut.Shortcut{}, fmt.Errorf("event hook stopped")
	}
}

func (r *Runtime) eventLoop(events chan hook.Event) {
	defer close(r.doneCh)

	for event := range events {
		switch event.Kind {
		case hook.KeyDown, hook.KeyHold:
			r.handleKeyDown(uint16(event.Rawcode))
		case hook.KeyUp:
			r.handleKeyUp(uint16(event.Rawcode))
		case hook.MouseDown:
			r.handleMouseDown(buttonIndex(event.Button))
		case hook.MouseUp:
			r.handleMouseUp(buttonIndex(event.Button))
		}
	}
}

func (r *Runtime) handleKeyDown(code uint16) {
	if bit, ok := modifierBit(code); ok {
		r.mu.Lock()
		r.mods |= bit
		r.mu.Unlock()
		if code == r.pauseKey {
			r.engine.HandleModifiers(true)
		}
		return
	}
	if code == r.pauseKey {
		r.engine.HandleModifiers(true)
		return
	}

	mods := r.heldModifiers()
	if r.deliverCapture(shortcut.Shortcut{Kind: shortcut.KindKeyboard, Code: code, Mods: mods}) {
		return
	}
	r.engine.HandleKeyDown(shortcut.SourceGlobal, code, mods)
}

func (r *Runtime) handleKeyUp(code uint16) {
	if bit, ok := modifierBit(code); ok {
		r.mu.Lock()
		r.mods &^= bit
		r.mu.Unlock()
		if code == r.pauseKey {
			r.engine.HandleModifiers(false)
		}
		return
	}
	if code == r.pauseKey {
		r.engine.HandleModifiers(false)
		return
	}
	r.engine.HandleKeyUp(shortcut.SourceGlobal, code, r.heldModifiers())
}

func (r *Runtime) handleMouseDown(button uint16) {
	if button != shortcut.PrimaryButton &&
		r.deliverCapture(shortcut.Shortcut{Kind: shortcut.KindMouse, Code: button}) {
		return
	}
	r.engine.HandleMouseDown(shortcut.SourceGlobal, button)
}

func (r *Runtime) handleMouseUp(button uint16) {
	r.engine.HandleMouseUp(shortcut.SourceGlobal, button)
}

func (r *Runtime) heldModifiers() shortcut.Modifiers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mods
}

func (r *Runtime) deliverCapture(s shortcut.Shortcut) bool {
	r.mu.Lock()
	ch := r.captureCh
	r.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- s:
	default:
	}
	return true
}

// buttonIndex normalizes gohook's 1-based buttons to the 0-based indices
// used by Shortcut (0 is the primary button).
func buttonIndex(button uint16) uint16 {
	if button == 0 {
		return 0
	}
	return button - 1
}

// modifierBit maps modifier key codes to the device-independent bitset.
// Codes follow the macOS virtual layout the tap reports.
func modifierBit(code uint16) (shortcut.Modifiers, bool) {
	switch code {
	case 54, 55:
		return shortcut.ModCommand, true
	case 56, 60:
		return shortcut.ModShift, true
	case 58, 61:
		return shortcut.ModOption, true
	case 59, 62:
		return shortcut.ModControl, true
	default:
		return 0, false
	}
}
