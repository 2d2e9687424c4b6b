package config

import (
	"os"
	"path/filepath"
)

// appName names the per-user and system data directories.
const appName = "commlog"

// sandboxSubdir holds the Pebble store behind the sandbox provider, so the
// data dir can later host other state without mixing it into the store.
const sandboxSubdir = "sandbox"

// DefaultDataDir returns the default data directory based on the host OS.
// The system location is only used by root; other users get a per-user
// directory they can write to.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	if os.Geteuid() == 0 && isDir("/var/lib") {
		return filepath.Join("/var/lib", appName)
	}

	// macOS: ~/Library/Application Support/commlog
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", appName)
	}

	// Windows: %USERPROFILE%/AppData/Local/commlog
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", appName)
	}

	// Linux users without XDG_DATA_HOME
	if isDir(filepath.Join(homeDir, ".local", "share")) {
		return filepath.Join(homeDir, ".local", "share", appName)
	}
	return filepath.Join(homeDir, "."+appName)
}

// SandboxDir is where the sandbox provider keeps its records: the sandbox
// subdirectory of DataDir, or of DefaultDataDir when DataDir is unset.
func (c Config) SandboxDir() string {
	dir := c.DataDir
	if dir == "" {
		dir = DefaultDataDir()
	}
	return filepath.Join(dir, sandboxSubdir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
