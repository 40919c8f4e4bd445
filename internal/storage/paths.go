// Package storage keeps the files that outlive a process: the learn
// file location, the journal of learning sessions and compressed
// archives of learn files.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chessmemo"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chessmemo/
// - Linux: ~/.local/share/chessmemo/
// - Windows: %APPDATA%/chessmemo/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Linux and other Unix-like: ~/.local/share/
		// Check XDG_DATA_HOME first
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	return EnsureDir(filepath.Join(baseDir, appName))
}

// ResolveDataDir returns dir if set, the platform directory otherwise,
// creating it either way.
func ResolveDataDir(dir string) (string, error) {
	if dir == "" {
		return GetDataDir()
	}
	return EnsureDir(dir)
}

// EnsureDir creates dir if it doesn't exist and returns it.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// JournalDir returns the journal directory under dataDir.
func JournalDir(dataDir string) (string, error) {
	return EnsureDir(filepath.Join(dataDir, "db"))
}

// LearnFilePath returns where the learn file named name lives under dataDir.
func LearnFilePath(dataDir, name string) string {
	return filepath.Join(dataDir, name)
}
