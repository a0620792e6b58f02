//go:build unix || linux || darwin

package fslock

import "golang.org/x/sys/unix"

// isProcessAlive reports whether pid names a currently running process, by
// sending it signal 0 (no-op, delivery-checked only).
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return unix.Kill(pid, 0) == nil
}
