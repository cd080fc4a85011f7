//go:build linux

package x11input

import (
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
)

// Injector synthesizes primary-button clicks through the XTEST extension.
// The pointer is re-sampled at dispatch time; sample and press/release run
// as one unit under the mutex so emissions never interleave.
type Injector struct {
	mu      sync.Mutex
	conn    *xgb.Conn
	rootWin xproto.Window
}

func (i *Injector) Click() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	// The query both re-samples the live pointer and confirms the server
	// is reachable; a failed probe skips this click.
	if _, err := xproto.QueryPointer(i.conn, i.rootWin).Reply(); err != nil {
		return err
	}

	if err := xtest.FakeInputChecked(
		i.conn,
		xproto.ButtonPress,
		byte(xproto.ButtonIndex1),
		xproto.TimeCurrentTime,
		i.rootWin,
		0,
		0,
		0,
	).Check(); err != nil {
		return err
	}
	if err := xtest.FakeInputChecked(
		i.conn,
		xproto.ButtonRelease,
		byte(xproto.ButtonIndex1),
		xproto.TimeCurrentTime,
		i.rootWin,
		0,
		0,
		0,
	).Check(); err != nil {
		return err
	}
	i.conn.Sync()
	return nil
}

// Close is a no-op; the runtime owns the X connection.
func (i *Injector) Close() error {
	return nil
}
