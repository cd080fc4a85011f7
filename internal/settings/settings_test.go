package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KuekHaoYang/KClick/internal/core/clicker"
	"github.com/KuekHaoYang/KClick/internal/core/shortcut"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := Open(path, nil)

	if got := store.Rate(); got != clicker.DefaultCPS {
		t.Fatalf("Rate() = %v, want %v", got, clicker.DefaultCPS)
	}
	if got := store.Mode(); got != clicker.ModeToggle {
		t.Fatalf("Mode() = %v, want toggle", got)
	}
	if store.LoadShortcut() != nil {
		t.Fatalf("expected no persisted shortcut")
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store := Open(path, nil)
	store.SaveRate(25)
	store.SaveMode(clicker.ModeHold)
	store.SaveShortcut(shortcut.Marshal(&shortcut.Shortcut{Kind: shortcut.KindMouse, Code: 2}))

	reloaded := Open(path, nil)
	if got := reloaded.Rate(); got != 25 {
		t.Fatalf("Rate() = %v, want 25", got)
	}
	if got := reloaded.Mode(); got != clicker.ModeHold {
		t.Fatalf("Mode() = %v, want hold", got)
	}
	s := shortcut.Unmarshal(reloaded.LoadShortcut())
	if s == nil || !s.Equal(shortcut.Shortcut{Kind: shortcut.KindMouse, Code: 2}) {
		t.Fatalf("unexpected reloaded shortcut: %+v", s)
	}
}

func TestCorruptFileFallsBackSilently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := Open(path, nil)
	if got := store.Rate(); got != clicker.DefaultCPS {
		t.Fatalf("Rate() = %v, want default after corrupt file", got)
	}
}

func TestInvalidPersistedValuesIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"clicks_per_second":0.2,"click_mode":"bogus"}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := Open(path, nil)
	if got := store.Rate(); got != clicker.DefaultCPS {
		t.Fatalf("Rate() = %v, want default for out-of-range rate", got)
	}
	if got := store.Mode(); got != clicker.ModeToggle {
		t.Fatalf("Mode() = %v, want toggle for unknown mode", got)
	}
}

func TestClearShortcut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store := Open(path, nil)
	store.SaveShortcut(shortcut.Marshal(&shortcut.Shortcut{Kind: shortcut.KindKeyboard, Code: 49}))
	store.SaveShortcut(nil)

	reloaded := Open(path, nil)
	if shortcut.Unmarshal(reloaded.LoadShortcut()) != nil {
		t.Fatalf("expected cleared shortcut to stay absent after reload")
	}
}
