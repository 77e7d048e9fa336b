//go:build windows

package store

import (
	"os"
	"path/filepath"
)

func appData() string {
	if dir := os.Getenv("APPDATA"); dir != "" {
		return dir
	}
	return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
}

func localAppData() string {
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return dir
	}
	return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
}

func platformConfigDefault() string {
	return filepath.Join(appData(), "patina", "config")
}

func platformDataDefault() string {
	return filepath.Join(appData(), "patina", "data")
}

func platformCacheDefault() string {
	return filepath.Join(localAppData(), "patina", "cache")
}

func platformStateDefault() string {
	return filepath.Join(localAppData(), "patina", "state")
}
