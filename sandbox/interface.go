package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmarkx/runbox/profile"
)

// Status classifies the outcome of an execution request.
type Status string

// Execution outcomes.
const (
	StatusSuccess             Status = "success"
	StatusRuntimeError        Status = "runtime_error"
	StatusCompileError        Status = "compile_error"
	StatusTimeout             Status = "timeout"
	StatusRejected            Status = "rejected"
	StatusUnsupportedLanguage Status = "unsupported_language"
	StatusInternalError       Status = "internal_error"
)

// Result is the immutable outcome of one execution request. Output is
// already sanitized and bounded. ExitCode is meaningful only for the
// success, runtime_error and compile_error statuses.
type Result struct {
	Status   Status
	Language profile.Language
	Output   string
	ExitCode int
}

// Format renders the result as the human-readable string surfaced to the
// host UI, prefixed with a status glyph.
func (r Result) Format() string {
	switch r.Status {
	case StatusSuccess:
		if r.Output == "" {
			return "✅ Execution completed (no output)"
		}
		return "✅ Execution completed:\n" + r.Output
	case StatusRuntimeError:
		return fmt.Sprintf("⚠️ Execution completed with errors (exit code %d):\n%s", r.ExitCode, r.Output)
	case StatusCompileError:
		return "❌ Compilation error:\n" + r.Output
	case StatusTimeout:
		return "❌ Execution timeout - process killed"
	case StatusRejected:
		return "❌ Code execution blocked: Security policy violation"
	case StatusUnsupportedLanguage:
		return "❌ " + r.Output
	default:
		return "❌ Execution error: " + r.Output
	}
}

// StageKind distinguishes compile stages from run stages so failures map
// to the right status.
type StageKind int

// Stage kinds.
const (
	StageCompile StageKind = iota
	StageRun
)

// Stage is one subprocess invocation within an execution: either the
// compile step or the run step of a request.
type Stage struct {
	Name    string
	Argv    []string
	Dir     string
	Timeout time.Duration
	Kind    StageKind
}

// Plan is the ordered stage sequence a driver built for one request,
// together with the temporary artifacts it allocated.
type Plan struct {
	Stages []Stage

	fs        FileSystem
	artifacts []string
}

// Cleanup removes every temporary artifact the plan allocated. It is
// best-effort and never fails: artifacts live under unique private paths,
// so a leftover is a leak, not a correctness problem.
func (p *Plan) Cleanup() {
	for _, path := range p.artifacts {
		_ = p.fs.RemoveAll(path)
	}
}

// StageResult is the captured outcome of a single stage subprocess.
type StageResult struct {
	Output   string // stdout and stderr merged
	ExitCode int
}

// ErrStageTimeout reports that a stage exceeded its wall-clock budget and
// its process tree was killed.
var ErrStageTimeout = errors.New("stage timed out")

// StageRunner runs one stage subprocess at a time and exposes the handle
// of the currently running process so it can be terminated from outside
// the blocked Run call.
type StageRunner interface {
	Run(ctx context.Context, stage Stage) (StageResult, error)
	Probe(ctx context.Context, binary string) bool
	Kill()
	CurrentPID() int
}

// FileSystem defines an interface for the file system operations drivers
// perform, so tests can substitute a mock.
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// filePermission is used for source files written into temp directories.
const filePermission = 0600
