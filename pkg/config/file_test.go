package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestNewFileMissingFileUsesDefaults(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.RefreshInterval(); got != 5*time.Second {
		t.Errorf("refresh interval = %v, want default 5s", got)
	}
	if got := f.ProbeTimeout(); got != 10*time.Second {
		t.Errorf("probe timeout = %v, want default 10s", got)
	}
	if got := f.PreferredSources(); got != nil {
		t.Errorf("preferred sources = %v, want nil", got)
	}
}

func TestNewFileEmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.RefreshInterval(); got != 5*time.Second {
		t.Errorf("refresh interval = %v, want default 5s", got)
	}
}

func TestNewFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFile(path); err == nil {
		t.Error("malformed config should fail to load")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.SetRefreshInterval(30 * time.Second)
	f.SetProbeTimeout(3 * time.Second)
	f.SetPreferredSources([]string{"pmset", "ioreg"})
	if err := f.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := NewFile(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if got := loaded.RefreshInterval(); got != 30*time.Second {
		t.Errorf("refresh interval = %v, want 30s", got)
	}
	if got := loaded.ProbeTimeout(); got != 3*time.Second {
		t.Errorf("probe timeout = %v, want 3s", got)
	}
	if got := loaded.PreferredSources(); !reflect.DeepEqual(got, []string{"pmset", "ioreg"}) {
		t.Errorf("preferred sources = %v, want [pmset ioreg]", got)
	}
}

func TestPartialConfigKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"refreshIntervalSeconds": 60}`), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.RefreshInterval(); got != 60*time.Second {
		t.Errorf("refresh interval = %v, want 60s", got)
	}
	if got := f.ProbeTimeout(); got != 10*time.Second {
		t.Errorf("probe timeout = %v, want default 10s", got)
	}
}

func TestSetPreferredSourcesEmptyClears(t *testing.T) {
	f := NewFileFromConfig(&RawFileConfig{}, "")

	f.SetPreferredSources([]string{"sysfs"})
	f.SetPreferredSources(nil)

	if got := f.PreferredSources(); got != nil {
		t.Errorf("preferred sources = %v, want nil after clearing", got)
	}
}
