//go:build !linux

package sandbox

import (
	"os"
	"os/exec"
)

// limitsSupported reports whether per-process resource limits can be
// applied on this platform. Execution proceeds without them when not.
func limitsSupported() bool {
	return false
}

func setProcessGroup(_ *exec.Cmd) {}

func applyResourceLimits(_ int, _ resourceLimits) error {
	return nil
}

// killTree kills the spawned process. Without process-group support only
// the direct child is terminated.
func killTree(pid int) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = proc.Kill()
}
