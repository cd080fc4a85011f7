// Package app composes the click and shortcut engines. The engines never
// reference each other; the controller owns both and translates trigger and
// pause-modifier transitions into click operations according to the
// configured mode.
package app

import (
	"github.com/KuekHaoYang/KClick/internal/core/clicker"
	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

type Controller struct {
	clicks   *clicker.Engine
	triggers *shortcut.Engine
}

func NewController(clicks *clicker.Engine, triggers *shortcut.Engine) *Controller {
	c := &Controller{clicks: clicks, triggers: triggers}

	triggers.OnTriggerStart(func() {
		switch clicks.ClickMode() {
		case clicker.ModeHold:
			clicks.Start()
		default:
			clicks.Toggle()
		}
	})
	triggers.OnTriggerEnd(func() {
		if clicks.ClickMode() == clicker.ModeHold {
			clicks.Stop()
		}
	})
	triggers.OnFnChange(func(held bool) {
		clicks.SetExternalPause(held)
	})

	return c
}

// Status is the read-only snapshot exposed to the display boundary.
type Status struct {
	Clicking  bool
	Paused    bool
	Mode      clicker.Mode
	CPS       float64
	Shortcut  string
	Recording bool
}

func (c *Controller) Status() Status {
	return Status{
		Clicking:  c.clicks.IsClicking(),
		Paused:    c.clicks.IsPaused(),
		Mode:      c.clicks.ClickMode(),
		CPS:       c.clicks.Rate(),
		Shortcut:  c.triggers.Descriptor(),
		Recording: c.triggers.IsRecording(),
	}
}

// User actions forwarded from the display boundary.

func (c *Controller) ToggleClicking()           { c.clicks.Toggle() }
func (c *Controller) SetRate(cps float64)       { c.clicks.SetRate(cps) }
func (c *Controller) SetMode(m clicker.Mode)    { c.clicks.SetMode(m) }
func (c *Controller) SetHovering(hovering bool) { c.clicks.SetHovering(hovering) }
func (c *Controller) StartRecording()           { c.triggers.StartRecording() }
func (c *Controller) CancelRecording()          { c.triggers.CancelRecording() }
