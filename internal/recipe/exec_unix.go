//go:build !windows

package recipe

import "syscall"

// groupAttr starts the recipe's process in its own group so groupKill
// can terminate the whole subtree.
func groupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func groupKill(pid int, sig syscall.Signal) {
	syscall.Kill(-pid, sig)
}
