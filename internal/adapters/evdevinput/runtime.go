//go:build linux

package evdevinput

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

type Config struct {
	// DevicePath pins observation to one input device; all physical
	// key-capable devices are used when empty.
	DevicePath string
	// PauseCode is the evdev code treated as the pause modifier.
	// Defaults to KEY_FN when zero.
	PauseCode uint16
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Runtime observes raw evdev key/button events from the source devices and
// routes them into the shortcut engine. Bindings on this backend are
// recorded and matched in evdev code space.
type Runtime struct {
	engine    *shortcut.Engine
	logger    Logger
	devices   []*evdev.InputDevice
	pauseCode uint16

	mu        sync.Mutex
	mods      shortcut.Modifiers
	captureCh chan shortcut.Shortcut

	stopCh    chan struct{}
	stopOnce  sync.Once
	readersWG sync.WaitGroup
}

func NewRuntime(engine *shortcut.Engine, cfg Config, logger Logger) (*Runtime, error) {
	if engine == nil {
		return nil, fmt.Errorf("shortcut engine is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	devices, err := openObservationDevices(cfg.DevicePath)
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		name, _ := dev.Name()
		logger.Info("Using source device", "path", dev.Path(), "name", name)
	}

	pauseCode := cfg.PauseCode
	if pauseCode == 0 {
		pauseCode = DefaultPauseCode
	}
	return &Runtime{
		engine:    engine,
		logger:    logger,
		devices:   devices,
		pauseCode: pauseCode,
		stopCh:    make(chan struct{}),
	}, nil
}

func (r *Runtime) Start() error {
	for _, dev := range r.devices {
		r.readersWG.Add(1)
		go r.readLoop(dev)
	}
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		for _, dev := range r.devices {
			_ = dev.Close()
		}
		r.readersWG.Wait()
	})
}

// CaptureNext consumes the next qualifying press as a recorded binding.
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
	case <-r.stopCh:
		return shortcut.Shortcut{}, fmt.Errorf("input observation stopped")
	}
}

func (r *Runtime) readLoop(dev *evdev.InputDevice) {
	defer r.readersWG.Done()

	path := dev.Path()
	for {
		events, err := dev.ReadSlice(64)
		if err != nil {
			if r.stopped() || isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !r.sleepWithStop(10 * time.Millisecond) {
					return
				}
				continue
			}
			r.logger.Warn("Read failed", "path", path, "err", err)
			if !r.sleepWithStop(100 * time.Millisecond) {
				return
			}
			continue
		}

		for _, event := range events {
			if event.Type != evdev.EV_KEY {
				continue
			}
			r.handleKeyEvent(uint16(event.Code), event.Value)
		}
	}
}

func (r *Runtime) handleKeyEvent(code uint16, value int32) {
	// value 2 is autorepeat; the engine's edge latch absorbs it.
	down := value != 0

	if code == r.pauseCode {
		r.engine.HandleModifiers(down)
		if _, isMod := modifierBit(code); !isMod {
			return
		}
	}
	if bit, ok := modifierBit(code); ok {
		r.mu.Lock()
		if down {
			r.mods |= bit
		} else {
			r.mods &^= bit
		}
		r.mu.Unlock()
		return
	}

	if isMouseButton(code) {
		button := buttonIndex(code)
		if down {
			if button != shortcut.PrimaryButton &&
				r.deliverCapture(shortcut.Shortcut{Kind: shortcut.KindMouse, Code: button}) {
				return
			}
			r.engine.HandleMouseDown(shortcut.SourceGlobal, button)
		} else {
			r.engine.HandleMouseUp(shortcut.SourceGlobal, button)
		}
		return
	}

	mods := r.heldModifiers()
	if down {
		if r.deliverCapture(shortcut.Shortcut{Kind: shortcut.KindKeyboard, Code: code, Mods: mods}) {
			return
		}
		r.engine.HandleKeyDown(shortcut.SourceGlobal, code, mods)
	} else {
		r.engine.HandleKeyUp(shortcut.SourceGlobal, code, mods)
	}
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

func (r *Runtime) stopped() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

func (r *Runtime) sleepWithStop(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-r.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
