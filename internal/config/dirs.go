package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	stateDirEnv  = "TESTDOCK_STATE_DIR"
	xdgStateHome = "XDG_STATE_HOME"
	appData      = "APPDATA"
	logsSubdir   = "logs"
)

// StateDir returns the testdock state directory.
func StateDir() string {
	if a := os.Getenv(stateDirEnv); a != "" {
		return a
	}
	if b := os.Getenv(xdgStateHome); b != "" {
		return filepath.Join(b, "testdock")
	}
	if runtime.GOOS == "windows" {
		if c := os.Getenv(appData); c != "" {
			return filepath.Join(c, "testdock", "state")
		}
	}
	d, _ := os.UserHomeDir()
	return filepath.Join(d, ".local", "state", "testdock")
}

// LogsDir returns the directory holding testdock's own log file.
func LogsDir() string {
	return filepath.Join(StateDir(), logsSubdir)
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
