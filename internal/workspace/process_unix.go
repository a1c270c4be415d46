//go:build unix

package workspace

import (
	"errors"
	"syscall"
)

// processAlive checks whether pid exists with signal 0.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}
