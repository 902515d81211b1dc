package config

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	envHome    = "SCREEN_EXPECT_HOME"
	envXDGData = "XDG_DATA_HOME"
	appDir     = "screen-expect"
)

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the directory screen-expect keeps its state in.
//
// Resolution order:
//  1. $SCREEN_EXPECT_HOME
//  2. $XDG_DATA_HOME/screen-expect
//  3. ~/.screen-expect
//  4. <tmp>/screen-expect when no user home is known (CI containers)
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome(os.Getenv, os.UserHomeDir)
	})
	return homeDir
}

// GetDataDir returns <home>/data, where persisted variables live.
func GetDataDir() string {
	return filepath.Join(GetHome(), "data")
}

// DefaultVarsPath is the persistence file used when none is configured.
func DefaultVarsPath() string {
	return filepath.Join(GetDataDir(), "vars.db")
}

func resolveHome(getenv func(string) string, userHome func() (string, error)) string {
	if env := getenv(envHome); env != "" {
		return env
	}
	if xdg := getenv(envXDGData); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, appDir)
	}
	if home, err := userHome(); err == nil && home != "" {
		return filepath.Join(home, "."+appDir)
	}
	return filepath.Join(os.TempDir(), appDir)
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
