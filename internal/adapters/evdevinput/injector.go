//go:build linux

package evdevinput

import (
	"sync"

	evdev "github.com/holoplot/go-evdev"
)

// Injector emits primary-button clicks through a uinput virtual device.
// Clicks land at the live cursor position; the compositor resolves the
// pointer at delivery time.
type Injector struct {
	mu  sync.Mutex
	dev *evdev.InputDevice
}

func NewInjector() (*Injector, error) {
	capabilities := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {evdev.BTN_LEFT},
	}
	id := evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}

	dev, err := evdev.CreateDevice("kclick", id, capabilities)
	if err != nil {
		return nil, err
	}
	return &Injector{dev: dev}, nil
}

func (i *Injector) Click() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	events := []evdev.InputEvent{
		{Type: evdev.EV_KEY, Code: evdev.BTN_LEFT, Value: 1},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
		{Type: evdev.EV_KEY, Code: evdev.BTN_LEFT, Value: 0},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
	}
	for idx := range events {
		if err := i.dev.WriteOne(&events[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (i *Injector) Close() error {
	if i.dev == nil {
		return nil
	}
	return i.dev.Close()
}
