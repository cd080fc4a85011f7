package clicker

import (
	"fmt"
	"strings"
)

const (
	// DefaultCPS is the click rate used when nothing is persisted.
	DefaultCPS = 10.0
	// MinCPS is the lower clamp for the click rate.
	MinCPS = 1.0
)

// Mode selects how a trigger press drives the engine.
type Mode int

const (
	// ModeToggle starts clicking on one trigger press and stops on the next.
	ModeToggle Mode = iota
	// ModeHold clicks only while the trigger is physically held.
	ModeHold
)

func (m Mode) String() string {
	switch m {
	case ModeHold:
		return "hold"
	default:
		return "toggle"
	}
}

// ParseMode resolves a persisted or flag-provided mode name.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "toggle":
		return ModeToggle, nil
	case "hold":
		return ModeHold, nil
	default:
		return ModeToggle, fmt.Errorf("invalid click mode %q (expected toggle|hold)", value)
	}
}

// Injector synthesizes one primary-button click. Implementations re-sample
// the pointer position at dispatch time and emit press followed by release
// as one unit.
type Injector interface {
	Click() error
	Close() error
}

// Guard is the spatial self-click probe consulted immediately before
// dispatch. It is independent of the cached hover flag kept by the engine;
// either being true suppresses the emission.
type Guard interface {
	SuppressClick() bool
}

// Store persists the user-tunable settings. Writes are best-effort.
type Store interface {
	SaveRate(cps float64)
	SaveMode(mode Mode)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config carries the initial engine settings plus optional collaborators.
type Config struct {
	CPS  float64
	Mode Mode

	Guard Guard
	Store Store
}
