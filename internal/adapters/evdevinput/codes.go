//go:build linux

package evdevinput

import (
	"fmt"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

// DefaultPauseCode is the pause modifier used when none is configured.
const DefaultPauseCode = uint16(evdev.KEY_FN)

// ParseCode resolves an evdev code name (KEY_F8, BTN_SIDE) or a numeric
// value.
func ParseCode(value string) (uint16, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key code is empty")
	}
	if code, ok := evdev.KEYFromString[raw]; ok {
		return uint16(code), nil
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like KEY_F8/BTN_SIDE or numeric code", value)
	}
	if parsed < 0 || parsed > 0xFFFF {
		return 0, fmt.Errorf("key code out of range: %d", parsed)
	}
	return uint16(parsed), nil
}

func FormatCodeName(code uint16) string {
	name := evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code))
	if name != "" {
		return name
	}
	return strconv.Itoa(int(code))
}

func isMouseButton(code uint16) bool {
	c := evdev.EvCode(code)
	return c >= evdev.BTN_MOUSE && c <= evdev.BTN_TASK
}

// buttonIndex maps BTN_* codes to the 0-based indices used by Shortcut,
// with BTN_LEFT as the primary button 0.
func buttonIndex(code uint16) uint16 {
	return code - uint16(evdev.BTN_MOUSE)
}

func modifierBit(code uint16) (shortcut.Modifiers, bool) {
	switch evdev.EvCode(code) {
	case evdev.KEY_LEFTCTRL, evdev.KEY_RIGHTCTRL:
		return shortcut.ModControl, true
	case evdev.KEY_LEFTALT, evdev.KEY_RIGHTALT:
		return shortcut.ModOption, true
	case evdev.KEY_LEFTSHIFT, evdev.KEY_RIGHTSHIFT:
		return shortcut.ModShift, true
	case evdev.KEY_LEFTMETA, evdev.KEY_RIGHTMETA:
		return shortcut.ModCommand, true
	default:
		return 0, false
	}
}
