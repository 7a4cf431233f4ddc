package config

import (
	"os"
	"path/filepath"
)

const appName = "topomap"

// DefaultDirs returns the ordered configuration directories to resolve
// fragments from. $TOPOMAP_CONFIGDIR, when set, replaces the whole list.
// Otherwise the system directory is overlaid by the per-user one, so user
// fragments win for scalar values.
func DefaultDirs() []string {
	if dir := os.Getenv("TOPOMAP_CONFIGDIR"); dir != "" {
		return []string{dir}
	}

	dirs := []string{filepath.Join("/etc", appName)}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".config")
		}
	}
	if base != "" {
		dirs = append(dirs, filepath.Join(base, appName))
	}
	return dirs
}

// DefaultCacheDir is used when the resolved configuration leaves
// cache_directory empty.
func DefaultCacheDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), appName, "cache")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, appName, "cache")
}
