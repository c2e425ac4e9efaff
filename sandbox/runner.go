package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmarkx/runbox/config"
)

// pipeWaitGrace bounds how long Wait keeps collecting output after the
// stage process itself has exited. A descendant that detached from the
// process group can outlive the kill while holding the inherited output
// pipe open; without this bound Wait would block until it exits.
const pipeWaitGrace = 500 * time.Millisecond

// resourceLimits are the best-effort per-process limits applied to stage
// subprocesses. Zero values disable the corresponding limit.
type resourceLimits struct {
	cpuSeconds int
	memoryMB   int
}

// processRunner spawns one subprocess per stage, captures its merged
// output, enforces the stage timeout and keeps a handle to the currently
// running process so it can be killed from another goroutine.
type processRunner struct {
	logger       *zap.Logger
	limits       resourceLimits
	probeTimeout time.Duration

	mu      sync.Mutex
	current *os.Process
}

func newProcessRunner(cfg *config.Config, logger *zap.Logger) *processRunner {
	r := &processRunner{
		logger: logger,
		limits: resourceLimits{
			cpuSeconds: cfg.Execution.CPULimitSec,
			memoryMB:   cfg.Execution.MemoryLimitMB,
		},
		probeTimeout: cfg.ProbeTimeout(),
	}
	if !limitsSupported() && (r.limits.cpuSeconds > 0 || r.limits.memoryMB > 0) {
		logger.Warn("process resource limits not supported on this platform, executing without them")
	}
	return r
}

// Run executes a single stage to completion, timeout or cancellation.
// stdout and stderr are captured as one merged stream. On timeout or
// cancellation the whole process tree is killed before Run returns.
func (r *processRunner) Run(ctx context.Context, stage Stage) (StageResult, error) {
	if len(stage.Argv) == 0 {
		return StageResult{}, errors.New("stage has no command")
	}

	cmd := exec.Command(stage.Argv[0], stage.Argv[1:]...) //nolint:gosec // Argv comes from static language profiles
	cmd.Dir = stage.Dir
	cmd.Env = scrubbedEnv()

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = pipeWaitGrace

	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return StageResult{}, fmt.Errorf("spawn %s: %w", stage.Argv[0], err)
	}

	pid := cmd.Process.Pid
	if limitsSupported() {
		if err := applyResourceLimits(pid, r.limits); err != nil {
			r.logger.Warn("failed to apply resource limits",
				zap.Int("pid", pid), zap.Error(err))
		}
	}

	r.setCurrent(cmd.Process)
	defer r.clearCurrent()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(stage.Timeout)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		return stageResultFromWait(&output, waitErr)
	case <-timer.C:
		killTree(pid)
		<-done
		return StageResult{Output: output.String(), ExitCode: -1}, ErrStageTimeout
	case <-ctx.Done():
		killTree(pid)
		<-done
		return StageResult{Output: output.String(), ExitCode: -1}, ctx.Err()
	}
}

func stageResultFromWait(output *bytes.Buffer, waitErr error) (StageResult, error) {
	if waitErr == nil {
		return StageResult{Output: output.String(), ExitCode: 0}, nil
	}
	// The stage process exited cleanly but a lingering descendant held the
	// output pipe past the grace period. Its output is complete enough.
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		return StageResult{Output: output.String(), ExitCode: 0}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return StageResult{Output: output.String(), ExitCode: exitErr.ExitCode()}, nil
	}
	return StageResult{Output: output.String()}, fmt.Errorf("wait for stage: %w", waitErr)
}

// Probe reports whether a toolchain binary is present by invoking it with
// --version under a short timeout. A non-zero exit still counts as
// present; only a spawn failure or timeout does not.
func (r *processRunner) Probe(ctx context.Context, binary string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "--version")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	err := cmd.Run()
	if err == nil {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && ctx.Err() == nil
}

// Kill terminates the currently running process tree. Calling it with no
// process running is a no-op. The lock is held across the signal so the
// handle cannot be cleared (and the pid recycled) between the read and
// the kill.
func (r *processRunner) Kill() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return
	}
	killTree(r.current.Pid)
}

// CurrentPID returns the pid of the running stage process, or 0 when idle.
func (r *processRunner) CurrentPID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return 0
	}
	return r.current.Pid
}

func (r *processRunner) setCurrent(p *os.Process) {
	r.mu.Lock()
	r.current = p
	r.mu.Unlock()
}

func (r *processRunner) clearCurrent() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

// scrubbedEnv returns the process environment with interpreter search-path
// variables cleared so user code cannot load modules planted elsewhere on
// the host.
func scrubbedEnv() []string {
	environ := os.Environ()
	env := make([]string, 0, len(environ)+2)
	for _, kv := range environ {
		if strings.HasPrefix(kv, "PYTHONPATH=") || strings.HasPrefix(kv, "NODE_PATH=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "PYTHONPATH=", "NODE_PATH=")
}
