//go:build windows

package app

import "os"

var shutdownSignals = []os.Signal{os.Interrupt}

// terminate kills the daemon. Windows has no SIGTERM, so the daemon
// cannot log its own shutdown.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// processExists relies on Signal failing for exited processes, since
// FindProcess always succeeds on Windows.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(os.Signal(nil)) == nil
}
