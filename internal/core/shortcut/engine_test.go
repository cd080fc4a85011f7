package shortcut

import (
	"sync"
	"testing"
)

type memoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *memoryStore) SaveShortcut(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

func (s *memoryStore) LoadShortcut() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type triggerCounter struct {
	starts int
	ends   int
}

func (c *triggerCounter) attach(e *Engine) {
	e.OnTriggerStart(func() { c.starts++ })
	e.OnTriggerEnd(func() { c.ends++ })
}

func newTestEngine(t *testing.T, store Store) *Engine {
	t.Helper()
	engine, err := NewEngine(store, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestKeyboardMatchFiresOncePerPress(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.SetShortcut(&Shortcut{Kind: KindKeyboard, Code: 6, Mods: ModCommand})

	var counter triggerCounter
	counter.attach(engine)

	engine.HandleKeyDown(SourceGlobal, 6, ModCommand)
	if counter.starts != 1 {
		t.Fatalf("expected one trigger start, got %d", counter.starts)
	}
	if !engine.IsTriggered() {
		t.Fatalf("expected triggered latch set after matched press")
	}

	// Key-repeat presses while held must not re-fire.
	engine.HandleKeyDown(SourceGlobal, 6, ModCommand)
	engine.HandleKeyDown(SourceGlobal, 6, ModCommand)
	if counter.starts != 1 {
		t.Fatalf("expected repeats ignored, got %d starts", counter.starts)
	}

	engine.HandleKeyUp(SourceGlobal, 6, 0)
	if counter.ends != 1 {
		t.Fatalf("expected one trigger end, got %d", counter.ends)
	}
	if engine.IsTriggered() {
		t.Fatalf("expected triggered latch cleared after release")
	}
}

func TestUnrelatedEventsDoNotFire(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.SetShortcut(&Shortcut{Kind: KindKeyboard, Code: 6, Mods: ModCommand})

	var counter triggerCounter
	counter.attach(engine)

	engine.HandleKeyDown(SourceGlobal, 7, ModCommand)        // wrong code
	engine.HandleKeyDown(SourceGlobal, 6, ModCommand|ModShift) // wrong modifiers
	engine.HandleKeyDown(SourceGlobal, 6, 0)                 // missing modifiers
	engine.HandleMouseDown(SourceGlobal, 2)                  // wrong kind
	engine.HandleKeyUp(SourceGlobal, 6, 0)                   // release without press

	if counter.starts != 0 || counter.ends != 0 {
		t.Fatalf("expected no trigger callbacks, got starts=%d ends=%d", counter.starts, counter.ends)
	}
}

func TestDualPathObservationFiresOnce(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.SetShortcut(&Shortcut{Kind: KindKeyboard, Code: 9, Mods: 0})

	var counter triggerCounter
	counter.attach(engine)

	// The same physical press observed by both the local and global paths.
	engine.HandleKeyDown(SourceLocal, 9, 0)
	engine.HandleKeyDown(SourceGlobal, 9, 0)
	if counter.starts != 1 {
		t.Fatalf("expected one logical trigger for dual-path press, got %d", counter.starts)
	}

	engine.HandleKeyUp(SourceLocal, 9, 0)
	engine.HandleKeyUp(SourceGlobal, 9, 0)
	if counter.ends != 1 {
		t.Fatalf("expected one logical trigger end for dual-path release, got %d", counter.ends)
	}
}

func TestMouseShortcutMatching(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.SetShortcut(&Shortcut{Kind: KindMouse, Code: 3})

	var counter triggerCounter
	counter.attach(engine)

	engine.HandleMouseDown(SourceGlobal, 3)
	engine.HandleMouseUp(SourceGlobal, 3)
	if counter.starts != 1 || counter.ends != 1 {
		t.Fatalf("expected one press/release cycle, got starts=%d ends=%d", counter.starts, counter.ends)
	}
}

func TestRecordingKeyboardShortcut(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store)

	engine.StartRecording()
	if !engine.IsRecording() {
		t.Fatalf("expected recording active")
	}

	if consumed := engine.HandleKeyDown(SourceLocal, 9, 0); !consumed {
		t.Fatalf("expected recorded event to be consumed")
	}
	if engine.IsRecording() {
		t.Fatalf("expected recording ended after capture")
	}

	current := engine.Current()
	if current == nil || !current.Equal(Shortcut{Kind: KindKeyboard, Code: 9}) {
		t.Fatalf("unexpected recorded shortcut: %+v", current)
	}
	if Unmarshal(store.LoadShortcut()) == nil {
		t.Fatalf("expected recorded shortcut persisted")
	}
}

func TestRecordingIgnoresModifierOnlyPress(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.StartRecording()

	if consumed := engine.HandleKeyDown(SourceLocal, 55, ModCommand); !consumed {
		t.Fatalf("expected modifier press swallowed while recording")
	}
	if !engine.IsRecording() {
		t.Fatalf("modifier-only press must not end recording")
	}

	engine.HandleKeyDown(SourceLocal, 40, ModCommand|ModShift)
	current := engine.Current()
	if current == nil || !current.Equal(Shortcut{Kind: KindKeyboard, Code: 40, Mods: ModCommand | ModShift}) {
		t.Fatalf("unexpected recorded shortcut: %+v", current)
	}
}

func TestRecordingMouseShortcut(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.StartRecording()

	// The primary button is reserved: it neither records nor ends recording.
	engine.HandleMouseDown(SourceLocal, PrimaryButton)
	if !engine.IsRecording() {
		t.Fatalf("primary button must not end recording")
	}
	if engine.Current() != nil {
		t.Fatalf("primary button must not become the binding")
	}

	if consumed := engine.HandleMouseDown(SourceLocal, 2); !consumed {
		t.Fatalf("expected recorded button press consumed")
	}
	current := engine.Current()
	if current == nil || !current.Equal(Shortcut{Kind: KindMouse, Code: 2}) {
		t.Fatalf("unexpected recorded shortcut: %+v", current)
	}
}

func TestRecordingOnlyAcceptsLocalEvents(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.StartRecording()

	if consumed := engine.HandleKeyDown(SourceGlobal, 9, 0); consumed {
		t.Fatalf("global events must not be consumed by recording")
	}
	if !engine.IsRecording() {
		t.Fatalf("global events must not end recording")
	}
	if engine.Current() != nil {
		t.Fatalf("global events must not become the binding")
	}
}

func TestMatchingDisabledWhileRecording(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.SetShortcut(&Shortcut{Kind: KindMouse, Code: 2})

	var counter triggerCounter
	counter.attach(engine)

	engine.StartRecording()
	engine.HandleMouseDown(SourceGlobal, 2)
	if counter.starts != 0 {
		t.Fatalf("expected no matching while recording, got %d starts", counter.starts)
	}
	engine.CancelRecording()

	engine.HandleMouseDown(SourceGlobal, 2)
	if counter.starts != 1 {
		t.Fatalf("expected matching restored after recording cancelled, got %d starts", counter.starts)
	}
}

func TestFnTracking(t *testing.T) {
	engine := newTestEngine(t, nil)

	var changes []bool
	engine.OnFnChange(func(held bool) { changes = append(changes, held) })

	engine.HandleModifiers(true)
	engine.HandleModifiers(true) // unchanged, no callback
	engine.HandleModifiers(false)

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Fatalf("unexpected fn transitions: %v", changes)
	}
	if engine.IsFnHeld() {
		t.Fatalf("expected fn released")
	}
}

func TestFnTrackingIndependentOfRecordingAndBinding(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.StartRecording()

	engine.HandleModifiers(true)
	if !engine.IsFnHeld() {
		t.Fatalf("fn tracking must work while recording with no binding set")
	}
}

func TestPersistedShortcutAdoptedAtConstruction(t *testing.T) {
	store := &memoryStore{}
	store.SaveShortcut(Marshal(&Shortcut{Kind: KindKeyboard, Code: 49}))

	engine := newTestEngine(t, store)
	current := engine.Current()
	if current == nil || !current.Equal(Shortcut{Kind: KindKeyboard, Code: 49}) {
		t.Fatalf("expected persisted shortcut adopted, got %+v", current)
	}
}

func TestMalformedPersistedShortcutLeftUnset(t *testing.T) {
	store := &memoryStore{}
	store.SaveShortcut([]byte("{not json"))

	engine := newTestEngine(t, store)
	if engine.Current() != nil {
		t.Fatalf("expected malformed persisted shortcut ignored")
	}
}

func TestClearingShortcutPersistsAbsence(t *testing.T) {
	store := &memoryStore{}
	engine := newTestEngine(t, store)

	engine.SetShortcut(&Shortcut{Kind: KindMouse, Code: 4})
	engine.SetShortcut(nil)

	if engine.Descriptor() != "Not Set" {
		t.Fatalf("Descriptor() = %q, want Not Set", engine.Descriptor())
	}
	if store.LoadShortcut() != nil {
		t.Fatalf("expected stored shortcut cleared")
	}
}

func TestReplacingShortcutResetsLatch(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.SetShortcut(&Shortcut{Kind: KindKeyboard, Code: 6, Mods: ModCommand})

	var counter triggerCounter
	counter.attach(engine)

	engine.HandleKeyDown(SourceGlobal, 6, ModCommand)
	engine.SetShortcut(&Shortcut{Kind: KindKeyboard, Code: 7})

	// Release of the old binding after replacement must not fire an end.
	engine.HandleKeyUp(SourceGlobal, 6, 0)
	if counter.ends != 0 {
		t.Fatalf("expected stale release ignored after rebinding, got %d ends", counter.ends)
	}

	engine.HandleKeyDown(SourceGlobal, 7, 0)
	if counter.starts != 2 {
		t.Fatalf("expected new binding to match, got %d starts", counter.starts)
	}
}
