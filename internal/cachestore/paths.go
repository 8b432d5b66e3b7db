package cachestore

import (
	"os"
	"path/filepath"
)

// DefaultCacheDir returns the XDG-style cache directory for the
// coastline cache database: $XDG_CACHE_HOME/maritime-route, falling back
// to $HOME/.cache/maritime-route.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "maritime-route")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "maritime-route")
	}
	return filepath.Join(home, ".cache", "maritime-route")
}

// DefaultCachePath returns the default bbolt database path within
// DefaultCacheDir, creating the directory if necessary.
func DefaultCachePath() (string, error) {
	dir := DefaultCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "coastline.db"), nil
}
