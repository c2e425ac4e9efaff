package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/dmarkx/runbox/config"
	"github.com/dmarkx/runbox/policy"
	"github.com/dmarkx/runbox/profile"
)

// ExecutionStatus describes whether an execution is currently in flight.
type ExecutionStatus struct {
	IsRunning bool
	ProcessID int // 0 when idle
}

// Coordinator serializes execution requests: at most one user process tree
// is alive at any instant. A request that arrives while another is running
// pre-empts it. All faults are converted into a Result; Execute never
// panics and never returns an error to the caller.
type Coordinator struct {
	cfg       *config.Config
	logger    *zap.Logger
	guard     *policy.Guard
	sanitizer *policy.Sanitizer
	runner    StageRunner
	fs        FileSystem

	// mu is the exclusive-execution lock, held for the whole Execute call.
	mu sync.Mutex
}

// CoordinatorOption defines a functional option for Coordinator
type CoordinatorOption func(*Coordinator)

// WithStageRunner sets the StageRunner for Coordinator
func WithStageRunner(runner StageRunner) CoordinatorOption {
	return func(c *Coordinator) {
		c.runner = runner
	}
}

// WithFileSystem sets the FileSystem for Coordinator
func WithFileSystem(fs FileSystem) CoordinatorOption {
	return func(c *Coordinator) {
		c.fs = fs
	}
}

// NewCoordinator creates a Coordinator with default implementations and
// optional interface overrides.
func NewCoordinator(cfg *config.Config, logger *zap.Logger, guard *policy.Guard, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		cfg:       cfg,
		logger:    logger,
		guard:     guard,
		sanitizer: policy.NewSanitizer(cfg.Execution.MaxOutputBytes),
		runner:    newProcessRunner(cfg, logger),
		fs:        &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Execute runs source code in the named language and reports the outcome.
// Requests are served in invocation order; a request that finds another
// execution in flight kills its process tree first (last write wins).
func (c *Coordinator) Execute(ctx context.Context, source, language string) (res Result) {
	defer func() {
		if cause := recover(); cause != nil {
			c.logger.Error("execution panicked", zap.Any("cause", cause))
			res = Result{Status: StatusInternalError, Output: "unexpected internal failure"}
		}
	}()

	lang, err := profile.Parse(language)
	if err != nil {
		return Result{
			Status: StatusUnsupportedLanguage,
			Output: fmt.Sprintf("Execution not supported for %s", language),
		}
	}

	// Pre-empt whatever is in flight. The previous Execute call observes
	// its process dying, finishes, and releases the lock we then take.
	c.runner.Kill()

	c.mu.Lock()
	defer c.mu.Unlock()

	execID := xid.New().String()
	log := c.logger.With(zap.String("execution_id", execID), zap.String("language", string(lang)))

	if err := c.guard.Check(source, lang); err != nil {
		log.Info("source rejected by policy", zap.Error(err))
		return Result{Status: StatusRejected, Language: lang}
	}

	prof := c.profileFor(lang)

	for _, binary := range prof.Binaries() {
		if !c.runner.Probe(ctx, binary) {
			log.Warn("toolchain binary unavailable", zap.String("binary", binary))
			return Result{
				Status:   StatusUnsupportedLanguage,
				Language: lang,
				Output:   missingToolchainMessage(lang),
			}
		}
	}

	plan, err := newDriver(prof, c.fs, execID).BuildPlan(source)
	if err != nil {
		if errors.Is(err, ErrNoEntryClass) {
			return Result{
				Status:   StatusCompileError,
				Language: lang,
				Output:   "Could not find public class in Java code",
			}
		}
		log.Error("stage planning failed", zap.Error(err))
		return Result{
			Status:   StatusInternalError,
			Language: lang,
			Output:   c.sanitizer.Sanitize(err.Error()),
		}
	}
	defer plan.Cleanup()

	var last StageResult
	for _, stage := range plan.Stages {
		log.Debug("running stage",
			zap.String("stage", stage.Name),
			zap.Duration("timeout", stage.Timeout))

		stageRes, err := c.runner.Run(ctx, stage)
		switch {
		case errors.Is(err, ErrStageTimeout):
			log.Info("stage timed out", zap.String("stage", stage.Name))
			return Result{Status: StatusTimeout, Language: lang}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Result{Status: StatusInternalError, Language: lang, Output: "execution canceled"}
		case err != nil:
			log.Error("stage failed", zap.String("stage", stage.Name), zap.Error(err))
			return Result{
				Status:   StatusInternalError,
				Language: lang,
				Output:   c.sanitizer.Sanitize(err.Error()),
			}
		}

		// The first failing stage ends the request: a compile failure
		// short-circuits the run stage.
		if stageRes.ExitCode != 0 {
			status := StatusRuntimeError
			if stage.Kind == StageCompile {
				status = StatusCompileError
			}
			return Result{
				Status:   status,
				Language: lang,
				Output:   c.sanitizer.Sanitize(stageRes.Output),
				ExitCode: stageRes.ExitCode,
			}
		}
		last = stageRes
	}

	return Result{
		Status:   StatusSuccess,
		Language: lang,
		Output:   c.sanitizer.Sanitize(last.Output),
	}
}

// ExecuteFormatted is the string-in, string-out boundary for the host UI.
func (c *Coordinator) ExecuteFormatted(ctx context.Context, source, language string) string {
	return c.Execute(ctx, source, language).Format()
}

// Stop terminates the in-flight execution, if any. It is idempotent and
// safe to call from any goroutine, including while Execute is blocked.
func (c *Coordinator) Stop() {
	c.runner.Kill()
}

// Status reports whether an execution is in flight and its process id.
func (c *Coordinator) Status() ExecutionStatus {
	pid := c.runner.CurrentPID()
	return ExecutionStatus{IsRunning: pid != 0, ProcessID: pid}
}

// profileFor merges configured overrides and timeouts into the static
// language profile.
func (c *Coordinator) profileFor(lang profile.Language) profile.Profile {
	prof, _ := profile.For(lang)
	prof.RunTimeout = c.cfg.RunTimeout()
	prof.CompileTimeout = c.cfg.CompileTimeout()

	if override, ok := c.cfg.Languages[string(lang)]; ok {
		if override.Binary != "" {
			prof.Binary = override.Binary
		}
		if override.CompilerBinary != "" {
			prof.CompilerBinary = override.CompilerBinary
		}
		if override.CompileCmd != "" {
			prof.CompileTemplate = override.CompileCmd
		}
		if override.RunCmd != "" {
			prof.RunTemplate = override.RunCmd
		}
	}
	return prof
}

func missingToolchainMessage(lang profile.Language) string {
	switch lang {
	case profile.Python:
		return "Python interpreter not available for Python execution"
	case profile.JavaScript:
		return "Node.js not available for JavaScript execution"
	case profile.Java:
		return "Java compiler/runtime not available"
	case profile.CPP:
		return "g++ compiler not available"
	default:
		return fmt.Sprintf("toolchain not available for %s execution", lang)
	}
}
