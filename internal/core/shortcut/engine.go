package shortcut

import (
	"fmt"
	"sync"
)

// Source identifies which observation path delivered an event. Recording
// only accepts the in-app local path; matching treats both identically.
type Source int

const (
	SourceGlobal Source = iota
	SourceLocal
)

// Store persists the current binding. Writes are best-effort; a nil payload
// clears the stored value.
type Store interface {
	SaveShortcut(data []byte)
	LoadShortcut() []byte
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Engine owns the single configurable trigger binding. It detects matched
// press/release transitions across the global and local observation paths,
// records new bindings from local events, and tracks the pause modifier.
//
// A single triggered latch is shared by both paths, so one physical press
// observed twice still raises exactly one logical trigger.
type Engine struct {
	store  Store
	logger Logger

	mu        sync.Mutex
	current   *Shortcut
	recording bool
	fnHeld    bool
	triggered bool

	onTriggerStart    func()
	onTriggerEnd      func()
	onFnChange        func(held bool)
	onShortcutChange  func(s *Shortcut)
	onRecordingChange func(recording bool)
}

// NewEngine builds the engine and adopts the persisted binding if one is
// present and well-formed; otherwise the binding starts unset.
func NewEngine(store Store, logger Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	e := &Engine{store: store, logger: logger}
	if store != nil {
		if s := Unmarshal(store.LoadShortcut()); s != nil {
			e.current = s
			logger.Debug("Loaded persisted shortcut", "shortcut", s.String())
		}
	}
	return e, nil
}

func (e *Engine) OnTriggerStart(fn func()) { e.mu.Lock(); e.onTriggerStart = fn; e.mu.Unlock() }
func (e *Engine) OnTriggerEnd(fn func())   { e.mu.Lock(); e.onTriggerEnd = fn; e.mu.Unlock() }

func (e *Engine) OnFnChange(fn func(held bool)) { e.mu.Lock(); e.onFnChange = fn; e.mu.Unlock() }

func (e *Engine) OnShortcutChange(fn func(*Shortcut)) {
	e.mu.Lock()
	e.onShortcutChange = fn
	e.mu.Unlock()
}

func (e *Engine) OnRecordingChange(fn func(recording bool)) {
	e.mu.Lock()
	e.onRecordingChange = fn
	e.mu.Unlock()
}

// HandleKeyDown processes an observed key press. The returned flag reports
// whether the event was consumed by recording and must not propagate.
func (e *Engine) HandleKeyDown(source Source, code uint16, mods Modifiers) bool {
	e.mu.Lock()

	if e.recording && source == SourceLocal {
		if IsModifierCode(code) {
			// Not a qualifying press; swallow it and keep recording.
			e.mu.Unlock()
			return true
		}
		e.adoptLocked(&Shortcut{Kind: KindKeyboard, Code: code, Mods: mods})
		notifyShortcut := e.onShortcutChange
		notifyRecording := e.onRecordingChange
		current := e.current
		e.mu.Unlock()

		if notifyRecording != nil {
			notifyRecording(false)
		}
		if notifyShortcut != nil {
			notifyShortcut(current)
		}
		return true
	}

	fire := e.matchPressLocked(KindKeyboard, code, mods)
	notify := e.onTriggerStart
	e.mu.Unlock()

	if fire && notify != nil {
		notify()
	}
	return false
}

// HandleKeyUp processes an observed key release. The release matches on the
// key code alone; modifiers may already have been let go.
func (e *Engine) HandleKeyUp(source Source, code uint16, mods Modifiers) bool {
	e.mu.Lock()
	fire := e.matchReleaseLocked(KindKeyboard, code)
	notify := e.onTriggerEnd
	e.mu.Unlock()

	if fire && notify != nil {
		notify()
	}
	return false
}

// HandleMouseDown processes an observed button press. While recording, any
// local press on a non-primary button becomes the new binding; the primary
// button is reserved and is ignored without ending recording.
func (e *Engine) HandleMouseDown(source Source, button uint16) bool {
	e.mu.Lock()

	if e.recording && source == SourceLocal {
		if button == PrimaryButton {
			e.mu.Unlock()
			return false
		}
		e.adoptLocked(&Shortcut{Kind: KindMouse, Code: button})
		notifyShortcut := e.onShortcutChange
		notifyRecording := e.onRecordingChange
		current := e.current
		e.mu.Unlock()

		if notifyRecording != nil {
			notifyRecording(false)
		}
		if notifyShortcut != nil {
			notifyShortcut(current)
		}
		return true
	}

	fire := e.matchPressLocked(KindMouse, button, 0)
	notify := e.onTriggerStart
	e.mu.Unlock()

	if fire && notify != nil {
		notify()
	}
	return false
}

func (e *Engine) HandleMouseUp(source Source, button uint16) bool {
	e.mu.Lock()
	fire := e.matchReleaseLocked(KindMouse, button)
	notify := e.onTriggerEnd
	e.mu.Unlock()

	if fire && notify != nil {
		notify()
	}
	return false
}

// HandleModifiers processes a modifier-state-change event. It runs
// regardless of recording state and whether a binding is configured.
func (e *Engine) HandleModifiers(fnHeld bool) {
	e.mu.Lock()
	if e.fnHeld == fnHeld {
		e.mu.Unlock()
		return
	}
	e.fnHeld = fnHeld
	notify := e.onFnChange
	e.mu.Unlock()

	if notify != nil {
		notify(fnHeld)
	}
}

// StartRecording captures the next qualifying local input event as the new
// binding.
func (e *Engine) StartRecording() {
	e.mu.Lock()
	if e.recording {
		e.mu.Unlock()
		return
	}
	e.recording = true
	notify := e.onRecordingChange
	e.mu.Unlock()

	if notify != nil {
		notify(true)
	}
}

func (e *Engine) CancelRecording() {
	e.mu.Lock()
	if !e.recording {
		e.mu.Unlock()
		return
	}
	e.recording = false
	notify := e.onRecordingChange
	e.mu.Unlock()

	if notify != nil {
		notify(false)
	}
}

// SetShortcut replaces the binding outside the recording flow (CLI capture,
// programmatic configuration). A nil value clears it.
func (e *Engine) SetShortcut(s *Shortcut) {
	e.mu.Lock()
	e.adoptLocked(s)
	notify := e.onShortcutChange
	current := e.current
	e.mu.Unlock()

	if notify != nil {
		notify(current)
	}
}

func (e *Engine) Current() *Shortcut {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	s := *e.current
	return &s
}

func (e *Engine) Descriptor() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Describe(e.current)
}

func (e *Engine) IsRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

func (e *Engine) IsFnHeld() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fnHeld
}

func (e *Engine) IsTriggered() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.triggered
}

// adoptLocked installs a new binding, ends any recording, resets the edge
// latch, and persists the change.
func (e *Engine) adoptLocked(s *Shortcut) {
	e.current = s
	e.recording = false
	e.triggered = false
	if e.store != nil {
		e.store.SaveShortcut(Marshal(s))
	}
}

func (e *Engine) matchPressLocked(kind Kind, code uint16, mods Modifiers) bool {
	if e.current == nil || e.recording || e.triggered {
		return false
	}
	if !e.current.Equal(Shortcut{Kind: kind, Code: code, Mods: mods}) {
		return false
	}
	e.triggered = true
	return true
}

func (e *Engine) matchReleaseLocked(kind Kind, code uint16) bool {
	if e.current == nil || !e.triggered {
		return false
	}
	if e.current.Kind != kind || e.current.Code != code {
		return false
	}
	e.triggered = false
	return true
}

// PrimaryButton is the mouse button reserved for ordinary interaction; it
// can never be recorded as a binding.
const PrimaryButton uint16 = 0
