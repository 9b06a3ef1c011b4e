// Package paths resolves where the checklist keeps its configuration, its
// database, and its backups.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "checklist"

// Directory names used when nothing else is configured.
const (
	DefaultDataDirName = ".checklist-db"
	BackupDirName      = "backups"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CHECKLIST_CONFIG_DIR"
	EnvDataDir   = "CHECKLIST_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// Dirs is a resolved directory set.
type Dirs struct {
	Config string
	Data   string
}

// Backups returns the default backup directory inside the data directory.
func (d Dirs) Backups() string {
	return filepath.Join(d.Data, BackupDirName)
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/checklist (fallback ~/.config/checklist)
// macOS:   ~/Library/Application Support/checklist
// Windows: %APPDATA%/checklist
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the per-user data directory.
//
// Linux:   $XDG_DATA_HOME/checklist (fallback ~/.local/share/checklist)
// Elsewhere the configuration directory is shared.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

// ResolveConfigDir applies the precedence flag > CHECKLIST_CONFIG_DIR >
// DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies the precedence flag > config file value >
// CHECKLIST_DATA_DIR > $(CWD)/.checklist-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
