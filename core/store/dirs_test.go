package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func resetGlobalDirs() {
	globalDirs = nil
	globalDirsOnce = sync.Once{}
}

func TestResolveDirs(t *testing.T) {
	resetGlobalDirs()

	dirs := ResolveDirs()
	if dirs.Config == "" || dirs.Data == "" || dirs.Cache == "" || dirs.State == "" {
		t.Fatalf("all dirs should resolve: %+v", dirs)
	}
	if !strings.Contains(dirs.Config, "patina") {
		t.Errorf("Config dir should contain 'patina': %s", dirs.Config)
	}
}

func TestResolveDirsXDGOverride(t *testing.T) {
	resetGlobalDirs()

	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmpDir)

	dirs := ResolveDirs()
	expected := filepath.Join(tmpDir, "patina")
	if dirs.Data != expected {
		t.Errorf("XDG override failed: got %s, want %s", dirs.Data, expected)
	}
}

func TestDirsHelperMethods(t *testing.T) {
	dirs := &Dirs{
		Config: "/config",
		Data:   "/data",
		Cache:  "/cache",
		State:  "/state",
	}

	if got := dirs.ConfigDir("config.yaml"); got != "/config/config.yaml" {
		t.Errorf("ConfigDir: got %s", got)
	}
	if got := dirs.BlobDir(); got != "/data/blobs" {
		t.Errorf("BlobDir: got %s", got)
	}
	if got := dirs.IndexPath(); got != "/data/index.db" {
		t.Errorf("IndexPath: got %s", got)
	}
	if got := dirs.LogDir(); got != "/state/logs" {
		t.Errorf("LogDir: got %s", got)
	}
}

func TestEnsureAll(t *testing.T) {
	tmpDir := t.TempDir()
	dirs := &Dirs{
		Config: filepath.Join(tmpDir, "config"),
		Data:   filepath.Join(tmpDir, "data"),
		Cache:  filepath.Join(tmpDir, "cache"),
		State:  filepath.Join(tmpDir, "state"),
	}

	if err := dirs.EnsureAll(); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for _, path := range []string{dirs.Config, dirs.Data, dirs.BlobDir(), dirs.Cache, dirs.State, dirs.LogDir()} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("dir should exist: %s", path)
		}
	}

	info, err := os.Stat(dirs.Config)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("config permissions: got %o, want 0700", perm)
	}
}
