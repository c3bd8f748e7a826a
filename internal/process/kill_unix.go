//go:build !windows

// Package process terminates the Chrome process tree a capture browser
// leaves behind.
package process

import "syscall"

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort: the browser may already have exited with its group
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
