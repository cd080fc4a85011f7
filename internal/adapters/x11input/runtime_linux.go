//go:build linux

package x11input

import (
	"fmt"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

// DefaultPauseKeysyms are the keysyms treated as the pause modifier when
// none are configured.
var DefaultPauseKeysyms = []string{"Super_L", "Super_R"}

type Config struct {
	// PauseKeysyms name the keys whose held state drives the external
	// pause.
	PauseKeysyms []string
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Runtime observes the bound shortcut and the pause modifier through X11
// key/button grabs and routes the transitions into the shortcut engine.
// Grabbed events are replayed so they still reach their original target.
// Bindings on this backend use X11 keycode space.
type Runtime struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
	engine  *shortcut.Engine
	logger  Logger

	mu             sync.Mutex
	grabbedKeys    []xproto.Keycode
	grabbedButtons []xproto.Button
	pauseKeycodes  map[xproto.Keycode]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewRuntime(engine *shortcut.Engine, cfg Config, logger Logger) (*Runtime, error) {
	if engine == nil {
		return nil, fmt.Errorf("shortcut engine is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, err
	}
	keybind.Initialize(xu)

	r := &Runtime{
		xu:      xu,
		conn:    conn,
		rootWin: xu.RootWin(),
		engine:  engine,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	keysyms := cfg.PauseKeysyms
	if len(keysyms) == 0 {
		keysyms = DefaultPauseKeysyms
	}
	r.pauseKeycodes = make(map[xproto.Keycode]struct{})
	for _, name := range keysyms {
		for _, keycode := range keybind.StrToKeycodes(xu, name) {
			r.pauseKeycodes[keycode] = struct{}{}
		}
	}
	if len(r.pauseKeycodes) == 0 {
		logger.Warn("No pause modifier keycodes resolved", "keysyms", keysyms)
	}

	if err := r.applyGrabs(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runtime) Start() error {
	go r.eventLoop()
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)

		r.mu.Lock()
		r.ungrabAllLocked()
		if r.conn != nil {
			r.conn.Close()
		}
		r.mu.Unlock()

		<-r.doneCh
	})
}

// Rebind re-applies the grabs after the binding changed.
func (r *Runtime) Rebind() {
	if err := r.applyGrabs(); err != nil {
		r.logger.Warn("Failed to update shortcut grabs", "err", err)
	}
}

// Injector returns the click synthesizer sharing this runtime's X
// connection.
func (r *Runtime) Injector() *Injector {
	return &Injector{conn: r.conn, rootWin: r.rootWin}
}

func (r *Runtime) eventLoop() {
	defer close(r.doneCh)

	for {
		event, xerr := r.conn.WaitForEvent()
		if xerr != nil {
			select {
			case <-r.stopCh:
				return
			default:
			}
			r.logger.Warn("X11 event error", "err", xerr)
			continue
		}
		if event == nil {
			return
		}

		switch ev := event.(type) {
		case xproto.KeyPressEvent:
			if r.isPauseKeycode(ev.Detail) {
				r.engine.HandleModifiers(true)
			} else {
				r.engine.HandleKeyDown(shortcut.SourceGlobal, uint16(ev.Detail), modifiersFromState(ev.State))
			}
			_ = xproto.AllowEventsChecked(r.conn, xproto.AllowReplayKeyboard, xproto.TimeCurrentTime).Check()
		case xproto.KeyReleaseEvent:
			if r.isPauseKeycode(ev.Detail) {
				r.engine.HandleModifiers(false)
			} else {
				r.engine.HandleKeyUp(shortcut.SourceGlobal, uint16(ev.Detail), modifiersFromState(ev.State))
			}
			_ = xproto.AllowEventsChecked(r.conn, xproto.AllowReplayKeyboard, xproto.TimeCurrentTime).Check()
		case xproto.ButtonPressEvent:
			r.engine.HandleMouseDown(shortcut.SourceGlobal, buttonIndex(ev.Detail))
			_ = xproto.AllowEventsChecked(r.conn, xproto.AllowReplayPointer, xproto.TimeCurrentTime).Check()
		case xproto.ButtonReleaseEvent:
			r.engine.HandleMouseUp(shortcut.SourceGlobal, buttonIndex(ev.Detail))
			_ = xproto.AllowEventsChecked(r.conn, xproto.AllowReplayPointer, xproto.TimeCurrentTime).Check()
		}
	}
}

func (r *Runtime) isPauseKeycode(keycode xproto.Keycode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pauseKeycodes[keycode]
	return ok
}

// applyGrabs fully releases the previous grabs before re-arming: the bound
// shortcut's keycode or button, plus the pause modifier keycodes.
func (r *Runtime) applyGrabs() error {
	keys := make(map[xproto.Keycode]struct{})
	buttons := make(map[xproto.Button]struct{})

	if current := r.engine.Current(); current != nil {
		switch current.Kind {
		case shortcut.KindKeyboard:
			keys[xproto.Keycode(current.Code)] = struct{}{}
		case shortcut.KindMouse:
			buttons[xproto.Button(current.Code + 1)] = struct{}{}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for keycode := range r.pauseKeycodes {
		keys[keycode] = struct{}{}
	}

	sortedKeys := make([]xproto.Keycode, 0, len(keys))
	for keycode := range keys {
		sortedKeys = append(sortedKeys, keycode)
	}
	sort.Slice(sortedKeys, func(i, j int) bool { return sortedKeys[i] < sortedKeys[j] })

	sortedButtons := make([]xproto.Button, 0, len(buttons))
	for button := range buttons {
		sortedButtons = append(sortedButtons, button)
	}
	sort.Slice(sortedButtons, func(i, j int) bool { return sortedButtons[i] < sortedButtons[j] })

	r.ungrabAllLocked()
	if err := r.grabAllLocked(sortedKeys, sortedButtons); err != nil {
		r.ungrabAllLocked()
		return err
	}
	return nil
}

func (r *Runtime) grabAllLocked(keys []xproto.Keycode, buttons []xproto.Button) error {
	for _, key := range keys {
		if err := xproto.GrabKeyChecked(
			r.conn,
			false,
			r.rootWin,
			xproto.ModMaskAny,
			key,
			xproto.GrabModeAsync,
			xproto.GrabModeSync,
		).Check(); err != nil {
			return err
		}
		r.grabbedKeys = append(r.grabbedKeys, key)
	}

	for _, button := range buttons {
		if err := xproto.GrabButtonChecked(
			r.conn,
			false,
			r.rootWin,
			xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
			xproto.GrabModeSync,
			xproto.GrabModeAsync,
			xproto.WindowNone,
			xproto.CursorNone,
			byte(button),
			xproto.ModMaskAny,
		).Check(); err != nil {
			return err
		}
		r.grabbedButtons = append(r.grabbedButtons, button)
	}
	return nil
}

func (r *Runtime) ungrabAllLocked() {
	for _, key := range r.grabbedKeys {
		xproto.UngrabKey(r.conn, key, r.rootWin, xproto.ModMaskAny)
	}
	for _, button := range r.grabbedButtons {
		xproto.UngrabButton(r.conn, byte(button), r.rootWin, xproto.ModMaskAny)
	}
	r.grabbedKeys = nil
	r.grabbedButtons = nil
}

// buttonIndex normalizes X11's 1-based buttons to the 0-based indices used
// by Shortcut.
func buttonIndex(button xproto.Button) uint16 {
	if button == 0 {
		return 0
	}
	return uint16(button) - 1
}

func modifiersFromState(state uint16) shortcut.Modifiers {
	var mods shortcut.Modifiers
	if state&xproto.ModMaskControl != 0 {
		mods |= shortcut.ModControl
	}
	if state&xproto.ModMask1 != 0 {
		mods |= shortcut.ModOption
	}
	if state&xproto.ModMaskShift != 0 {
		mods |= shortcut.ModShift
	}
	if state&xproto.ModMask4 != 0 {
		mods |= shortcut.ModCommand
	}
	return mods
}
