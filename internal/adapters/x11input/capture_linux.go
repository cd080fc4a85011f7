//go:build linux

package x11input

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

// modifierKeysyms are the keys that never qualify as a recorded binding on
// their own.
var modifierKeysyms = []string{
	"Shift_L", "Shift_R", "Control_L", "Control_R",
	"Alt_L", "Alt_R", "Super_L", "Super_R",
	"Caps_Lock", "Num_Lock",
}

// CaptureNext grabs the keyboard and pointer on a dedicated connection and
// returns the first qualifying press as a binding: any non-modifier key, or
// any mouse button other than the primary one.
func CaptureNext(timeout time.Duration) (shortcut.Shortcut, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return shortcut.Shortcut{}, err
	}
	conn := xu.Conn()
	root := xu.RootWin()
	keybind.Initialize(xu)

	defer conn.Close()
	defer xproto.UngrabPointer(conn, xproto.TimeCurrentTime)
	defer xproto.UngrabKeyboard(conn, xproto.TimeCurrentTime)

	if reply, err := xproto.GrabKeyboard(
		conn,
		false,
		root,
		xproto.TimeCurrentTime,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Reply(); err != nil {
		return shortcut.Shortcut{}, err
	} else if reply.Status != xproto.GrabStatusSuccess {
		return shortcut.Shortcut{}, fmt.Errorf("failed to grab keyboard (status=%d)", reply.Status)
	}

	if reply, err := xproto.GrabPointer(
		conn,
		false,
		root,
		xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		xproto.WindowNone,
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply(); err != nil {
		return shortcut.Shortcut{}, err
	} else if reply.Status != xproto.GrabStatusSuccess {
		return shortcut.Shortcut{}, fmt.Errorf("failed to grab pointer (status=%d)", reply.Status)
	}

	modifierKeycodes := make(map[xproto.Keycode]struct{})
	for _, name := range modifierKeysyms {
		for _, keycode := range keybind.StrToKeycodes(xu, name) {
			modifierKeycodes[keycode] = struct{}{}
		}
	}

	deadline := time.Now().Add(timeout)
	for {
		event, xerr := conn.PollForEvent()
		if xerr != nil {
			return shortcut.Shortcut{}, xerr
		}
		if event == nil {
			if time.Now().After(deadline) {
				return shortcut.Shortcut{}, fmt.Errorf("timed out waiting for key/button input")
			}
			time.Sleep(2 * time.Millisecond)
			continue
		}

		switch ev := event.(type) {
		case xproto.ButtonPressEvent:
			button := buttonIndex(ev.Detail)
			if button == shortcut.PrimaryButton {
				continue
			}
			return shortcut.Shortcut{Kind: shortcut.KindMouse, Code: button}, nil
		case xproto.KeyPressEvent:
			if _, isModifier := modifierKeycodes[ev.Detail]; isModifier {
				continue
			}
			return shortcut.Shortcut{
				Kind: shortcut.KindKeyboard,
				Code: uint16(ev.Detail),
				Mods: modifiersFromState(ev.State),
			}, nil
		}
	}
}
