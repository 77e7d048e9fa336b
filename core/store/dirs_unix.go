//go:build !windows

package store

import (
	"os"
	"path/filepath"
)

func platformConfigDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "patina")
}

func platformDataDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "patina")
}

func platformCacheDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".cache", "patina")
}

func platformStateDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "state", "patina")
}
