package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// StartupFile records the daemon startup outcome so the CLI can tell
// "starting" apart from "failed" without waiting on the socket.
type StartupFile struct {
	Status string `json:"status"`          // "ready" or "error"
	PID    int    `json:"pid,omitempty"`   // Process ID (only for ready status)
	Error  string `json:"error,omitempty"` // Error message (only for error status)
}

// WriteStartupReady writes a ready startup file.
func WriteStartupReady(path string) error {
	return writeStartup(path, &StartupFile{Status: "ready", PID: os.Getpid()})
}

// WriteStartupError writes an error startup file.
func WriteStartupError(path string, err error) error {
	return writeStartup(path, &StartupFile{Status: "error", Error: err.Error()})
}

func writeStartup(path string, sf *StartupFile) error {
	data, err := json.Marshal(sf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadStartup reads a startup file.
func ReadStartup(path string) (*StartupFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf StartupFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

// RemoveStartup removes the startup file.
func RemoveStartup(path string) error {
	return os.Remove(path)
}

// StartupPath returns the startup file path for a data directory.
func StartupPath(dataDir string) string {
	return filepath.Join(dataDir, "lumen.status")
}
