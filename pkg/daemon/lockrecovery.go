package daemon

import (
	"os"
	"path/filepath"

	"github.com/lumenapp/lumen/pkg/lumen/logging"
)

// RecoverFromStaleDaemon checks for and cleans up artifacts of a
// daemon that died without shutting down: its PID file, socket, and
// the dimension cache lock. Returns nil if cleanup succeeded or wasn't
// needed, ErrDaemonAlreadyRunning if a daemon is actually running.
func RecoverFromStaleDaemon(pidPath, socketPath, cacheDir string) error {
	pid, err := ReadPIDFile(pidPath)
	if err != nil {
		// No PID file or invalid PID means nothing to recover
		return nil //nolint:nilerr // missing PID file is not an error condition
	}

	if IsProcessRunning(pid) {
		return ErrDaemonAlreadyRunning
	}

	logging.Get("daemon").Warn("cleaning up stale daemon files", "stale_pid", pid)

	_ = os.Remove(pidPath)
	_ = os.Remove(socketPath)
	_ = os.Remove(filepath.Join(cacheDir, "metacache", "LOCK"))

	return nil
}
