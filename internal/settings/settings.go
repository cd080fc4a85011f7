// Package settings persists the user-tunable state as a JSON document under
// the user config directory. Reads happen once at startup; every change is
// written back atomically, best-effort.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KuekHaoYang/KClick/internal/core/clicker"
)

type document struct {
	ClicksPerSecond float64         `json:"clicks_per_second"`
	ClickMode       string          `json:"click_mode"`
	Shortcut        json.RawMessage `json:"shortcut,omitempty"`
}

type Logger interface {
	Warn(msg string, args ...any)
}

// File is the JSON-backed settings store. It implements clicker.Store and
// shortcut.Store; failed writes are logged and otherwise swallowed.
type File struct {
	path   string
	logger Logger

	mu   sync.Mutex
	data document
}

// DefaultPath places the settings under os.UserConfigDir, falling back to a
// dotfile in the working directory when no config dir is available.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".kclick-settings.json")
	}
	return filepath.Join(configDir, "kclick", "settings.json")
}

// Open loads the store at path. Missing or corrupt files fall back to the
// built-in defaults silently.
func Open(path string, logger Logger) *File {
	f := &File{
		path:   path,
		logger: logger,
		data: document{
			ClicksPerSecond: clicker.DefaultCPS,
			ClickMode:       clicker.ModeToggle.String(),
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return f
	}
	var loaded document
	if err := json.Unmarshal(raw, &loaded); err != nil {
		if logger != nil {
			logger.Warn("Ignoring corrupt settings file", "path", path, "err", err)
		}
		return f
	}
	if loaded.ClicksPerSecond >= clicker.MinCPS {
		f.data.ClicksPerSecond = loaded.ClicksPerSecond
	}
	if _, err := clicker.ParseMode(loaded.ClickMode); err == nil && loaded.ClickMode != "" {
		f.data.ClickMode = loaded.ClickMode
	}
	f.data.Shortcut = loaded.Shortcut
	return f
}

// Rate returns the persisted click rate (already validated at load).
func (f *File) Rate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.ClicksPerSecond
}

// Mode returns the persisted click mode.
func (f *File) Mode() clicker.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	mode, err := clicker.ParseMode(f.data.ClickMode)
	if err != nil {
		return clicker.ModeToggle
	}
	return mode
}

func (f *File) SaveRate(cps float64) {
	f.mu.Lock()
	f.data.ClicksPerSecond = cps
	f.saveLocked()
	f.mu.Unlock()
}

func (f *File) SaveMode(mode clicker.Mode) {
	f.mu.Lock()
	f.data.ClickMode = mode.String()
	f.saveLocked()
	f.mu.Unlock()
}

func (f *File) SaveShortcut(data []byte) {
	f.mu.Lock()
	f.data.Shortcut = data
	f.saveLocked()
	f.mu.Unlock()
}

func (f *File) LoadShortcut() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.Shortcut
}

func (f *File) saveLocked() {
	if err := f.writeLocked(); err != nil && f.logger != nil {
		f.logger.Warn("Failed to persist settings", "path", f.path, "err", err)
	}
}

func (f *File) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}
