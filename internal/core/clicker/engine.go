package clicker

import (
	"fmt"
	"sync"
	"time"
)

// Engine owns the clicking state and the repeating-click loop. All mutators
// are safe for concurrent use; emissions run on a single ordered background
// worker so injection latency never delays the loop timer.
type Engine struct {
	injector Injector
	guard    Guard
	store    Store
	logger   Logger

	mu       sync.Mutex
	clicking bool
	paused   bool
	hovering bool
	cps      float64
	mode     Mode
	onState  func(clicking bool)
	loopStop chan struct{}
	loopWG   sync.WaitGroup
	closed   bool

	emitCh   chan struct{}
	workerWG sync.WaitGroup
}

func NewEngine(cfg Config, injector Injector, logger Logger) (*Engine, error) {
	if injector == nil {
		return nil, fmt.Errorf("injector is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	e := &Engine{
		injector: injector,
		guard:    cfg.Guard,
		store:    cfg.Store,
		logger:   logger,
		cps:      clampCPS(cfg.CPS),
		mode:     cfg.Mode,
		emitCh:   make(chan struct{}, 4),
	}
	e.workerWG.Add(1)
	go e.emitWorker()
	return e, nil
}

// Start arms the click loop, firing one click immediately. No-op while
// already clicking.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.clicking || e.closed {
		e.mu.Unlock()
		return
	}
	e.clicking = true
	e.rescheduleLocked()
	notify := e.onState
	e.mu.Unlock()

	if notify != nil {
		notify(true)
	}
}

// Stop cancels the click loop. An emission already handed to the worker may
// still complete.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.clicking {
		e.mu.Unlock()
		return
	}
	e.clicking = false
	e.rescheduleLocked()
	notify := e.onState
	e.mu.Unlock()

	if notify != nil {
		notify(false)
	}
}

func (e *Engine) Toggle() {
	if e.IsClicking() {
		e.Stop()
	} else {
		e.Start()
	}
}

// SetExternalPause suspends emission while the pause modifier is held
// without clearing the clicking state. Unpausing resumes with one immediate
// click if still clicking.
func (e *Engine) SetExternalPause(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused == paused {
		return
	}
	e.paused = paused
	e.rescheduleLocked()
}

// SetRate clamps cps to MinCPS, persists it, and reschedules the loop at the
// new interval.
func (e *Engine) SetRate(cps float64) {
	clamped := clampCPS(cps)

	e.mu.Lock()
	e.cps = clamped
	store := e.store
	e.rescheduleLocked()
	e.mu.Unlock()

	if store != nil {
		store.SaveRate(clamped)
	}
}

// SetMode switches between toggle and hold semantics. The engine always
// stops first so the two trigger interpretations never overlap.
func (e *Engine) SetMode(mode Mode) {
	e.Stop()

	e.mu.Lock()
	e.mode = mode
	store := e.store
	e.mu.Unlock()

	if store != nil {
		store.SaveMode(mode)
	}
}

// SetHovering records whether the pointer is over the application's own UI.
// Maintained by the UI collaborator; gates individual emissions only.
func (e *Engine) SetHovering(hovering bool) {
	e.mu.Lock()
	e.hovering = hovering
	e.mu.Unlock()
}

// OnStateChange registers the observer invoked whenever the clicking state
// flips.
func (e *Engine) OnStateChange(fn func(clicking bool)) {
	e.mu.Lock()
	e.onState = fn
	e.mu.Unlock()
}

func (e *Engine) IsClicking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicking
}

func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Engine) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cps
}

func (e *Engine) ClickMode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Interval reports the current loop period.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return intervalFor(e.cps)
}

// Close tears the engine down: cancels any armed loop, drains the emission
// worker, and closes the injector.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.clicking = false
	e.cancelLoopLocked()
	e.mu.Unlock()

	// A cancelled loop may still hold a tick; it must be fully gone
	// before the emission channel closes.
	e.loopWG.Wait()
	close(e.emitCh)
	e.workerWG.Wait()
	return e.injector.Close()
}

// rescheduleLocked fully cancels any armed loop before re-arming, so no two
// loops for the same engine are ever concurrently live.
func (e *Engine) rescheduleLocked() {
	e.cancelLoopLocked()
	if !e.clicking || e.paused || e.closed {
		return
	}

	e.enqueueEmit()
	stop := make(chan struct{})
	e.loopStop = stop
	e.loopWG.Add(1)
	go e.clickLoop(intervalFor(e.cps), stop)
}

func (e *Engine) cancelLoopLocked() {
	if e.loopStop != nil {
		close(e.loopStop)
		e.loopStop = nil
	}
}

func (e *Engine) clickLoop(interval time.Duration, stop <-chan struct{}) {
	defer e.loopWG.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.enqueueEmit()
		}
	}
}

// enqueueEmit hands one emission to the worker without blocking the loop.
// If the worker is saturated the firing is skipped rather than queued
// without bound.
func (e *Engine) enqueueEmit() {
	select {
	case e.emitCh <- struct{}{}:
	default:
	}
}

func (e *Engine) emitWorker() {
	defer e.workerWG.Done()
	for range e.emitCh {
		e.emitOne()
	}
}

func (e *Engine) emitOne() {
	e.mu.Lock()
	suppressed := e.hovering
	guard := e.guard
	e.mu.Unlock()

	if !suppressed && guard != nil {
		suppressed = guard.SuppressClick()
	}
	if suppressed {
		e.logger.Debug("Click suppressed over own UI")
		return
	}

	// A failed injection skips this click only; the loop keeps running.
	if err := e.injector.Click(); err != nil {
		e.logger.Warn("Click injection failed", "err", err)
	}
}

func clampCPS(cps float64) float64 {
	if cps < MinCPS {
		return MinCPS
	}
	return cps
}

func intervalFor(cps float64) time.Duration {
	return time.Duration(float64(time.Second) / clampCPS(cps))
}
