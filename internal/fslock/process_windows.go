//go:build windows

package fslock

import "syscall"

// isProcessAlive reports whether pid names a currently running process, by
// attempting to open a handle to it.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	const daQueryInformation = 0x0400
	h, err := syscall.OpenProcess(daQueryInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	defer syscall.CloseHandle(h)

	var code uint32
	if err := syscall.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	const stillActive = 259
	return code == stillActive
}
