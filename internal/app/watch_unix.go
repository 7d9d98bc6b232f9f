//go:build !windows

package app

import (
	"os"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// terminate asks the daemon to shut down; it logs and exits on SIGTERM.
func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
