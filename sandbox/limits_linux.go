//go:build linux

package sandbox

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// limitsSupported reports whether per-process resource limits can be
// applied on this platform.
func limitsSupported() bool {
	return true
}

// setProcessGroup puts the child into its own process group so the whole
// tree can be signalled at once.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// applyResourceLimits caps CPU time and address space of an already
// started child via prlimit. Go cannot run code between fork and exec, so
// the limits land right after Start, before any meaningful amount of user
// code has run.
func applyResourceLimits(pid int, limits resourceLimits) error {
	if limits.cpuSeconds > 0 {
		seconds := uint64(limits.cpuSeconds)
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &unix.Rlimit{Cur: seconds, Max: seconds}, nil); err != nil {
			return fmt.Errorf("set cpu limit: %w", err)
		}
	}
	if limits.memoryMB > 0 {
		bytes := uint64(limits.memoryMB) * 1024 * 1024
		if err := unix.Prlimit(pid, unix.RLIMIT_AS, &unix.Rlimit{Cur: bytes, Max: bytes}, nil); err != nil {
			return fmt.Errorf("set memory limit: %w", err)
		}
	}
	return nil
}

// killTree delivers SIGKILL to the child's process group, taking down any
// descendants it spawned. The direct kill is a fallback for the window
// before the group exists.
func killTree(pid int) {
	_ = unix.Kill(-pid, unix.SIGKILL)
	_ = unix.Kill(pid, unix.SIGKILL)
}
