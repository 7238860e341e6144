//go:build windows

package recipe

import (
	"os"
	"syscall"
)

func groupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}

func groupKill(pid int, sig syscall.Signal) {
	// Windows has no process-group signal delivery; this kills just the
	// direct child process, whatever sig asks for.
	if p, err := os.FindProcess(pid); err == nil {
		p.Kill()
	}
}
