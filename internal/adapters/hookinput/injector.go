package hookinput

import (
	"sync"

	"github.com/go-vgo/robotgo"
)

// Injector synthesizes primary-button clicks through the OS input-injection
// facility. The press/release pair runs as one unit under the mutex so two
// emissions never interleave.
type Injector struct {
	mu sync.Mutex
}

func NewInjector() *Injector {
	return &Injector{}
}

func (i *Injector) Click() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	// Toggle emits at the live pointer position, so the click lands
	// wherever the pointer is now, not where it was when the loop fired.
	robotgo.Toggle("left", "down")
	robotgo.Toggle("left", "up")
	return nil
}

func (i *Injector) Close() error {
	return nil
}
