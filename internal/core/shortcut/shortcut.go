package shortcut

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind distinguishes keyboard chords from plain mouse-button bindings.
type Kind int

const (
	KindKeyboard Kind = iota
	KindMouse
)

func (k Kind) String() string {
	if k == KindMouse {
		return "mouse"
	}
	return "keyboard"
}

// Modifiers is the device-independent modifier bitset. Only meaningful for
// keyboard shortcuts; always zero for mouse bindings.
type Modifiers uint8

const (
	ModControl Modifiers = 1 << iota
	ModOption
	ModShift
	ModCommand
)

// Symbols renders the held modifiers in the conventional ⌃⌥⇧⌘ order.
func (m Modifiers) Symbols() string {
	var b strings.Builder
	if m&ModControl != 0 {
		b.WriteString("⌃")
	}
	if m&ModOption != 0 {
		b.WriteString("⌥")
	}
	if m&ModShift != 0 {
		b.WriteString("⇧")
	}
	if m&ModCommand != 0 {
		b.WriteString("⌘")
	}
	return b.String()
}

// Shortcut is the single configurable trigger binding: a keyboard key plus
// modifiers, or a mouse button index. Matching is exact on all three fields.
type Shortcut struct {
	Kind Kind      `json:"kind"`
	Code uint16    `json:"code"`
	Mods Modifiers `json:"modifiers"`
}

func (s Shortcut) Equal(other Shortcut) bool {
	return s.Kind == other.Kind && s.Code == other.Code && s.Mods == other.Mods
}

// String renders the human-readable descriptor, e.g. "⌘⇧K" or
// "Mouse Button 2".
func (s Shortcut) String() string {
	if s.Kind == KindMouse {
		return fmt.Sprintf("Mouse Button %d", s.Code)
	}
	return s.Mods.Symbols() + KeyName(s.Code)
}

// Describe renders a possibly-absent binding; nil reads as "Not Set".
func Describe(s *Shortcut) string {
	if s == nil {
		return "Not Set"
	}
	return s.String()
}

// Marshal serializes a binding (or its absence) for the settings store.
func Marshal(s *Shortcut) []byte {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return data
}

// Unmarshal restores a persisted binding. Malformed or empty payloads read
// as no binding, never as an error.
func Unmarshal(data []byte) *Shortcut {
	if len(data) == 0 {
		return nil
	}
	var s Shortcut
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if s.Kind != KindKeyboard && s.Kind != KindMouse {
		return nil
	}
	if s.Kind == KindMouse {
		s.Mods = 0
	}
	return &s
}
