package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/shlex"

	"github.com/dmarkx/runbox/profile"
)

// ErrNoEntryClass reports that JVM-style source declares no public class,
// so the required filename cannot be derived.
var ErrNoEntryClass = errors.New("no public class found")

var entryClassPattern = regexp.MustCompile(`public\s+class\s+(\w+)`)

// driver plans the stage sequence for one language. Each driver allocates
// its own temporary artifacts and records them on the plan for cleanup.
type driver interface {
	BuildPlan(source string) (*Plan, error)
}

// newDriver selects the driver variant for a language profile.
func newDriver(prof profile.Profile, fs FileSystem, execID string) driver {
	base := baseDriver{prof: prof, fs: fs, execID: execID}
	switch {
	case prof.JVMStyle:
		return &jvmDriver{base}
	case prof.Compiled:
		return &nativeDriver{base}
	default:
		return &scriptDriver{base}
	}
}

type baseDriver struct {
	prof   profile.Profile
	fs     FileSystem
	execID string
}

func (d baseDriver) tempPattern() string {
	return fmt.Sprintf("runbox-%s-*", d.execID)
}

// writeSource creates a private temp directory holding the source file and
// returns both paths. The directory is the single artifact to clean up.
func (d baseDriver) writeSource(source, filename string) (dir, src string, err error) {
	dir, err = d.fs.MkdirTemp("", d.tempPattern())
	if err != nil {
		return "", "", fmt.Errorf("create temp dir: %w", err)
	}
	src = filepath.Join(dir, filename)
	if err := d.fs.WriteFile(src, []byte(source), filePermission); err != nil {
		_ = d.fs.RemoveAll(dir)
		return "", "", fmt.Errorf("write source file: %w", err)
	}
	return dir, src, nil
}

// scriptDriver handles interpreted languages: one run stage invoking the
// interpreter on the temp source file.
type scriptDriver struct {
	baseDriver
}

func (d *scriptDriver) BuildPlan(source string) (*Plan, error) {
	dir, src, err := d.writeSource(source, "main"+d.prof.Extension)
	if err != nil {
		return nil, err
	}

	argv, err := expandCommand(d.prof.RunTemplate, map[string]string{
		"bin": d.prof.Binary,
		"src": src,
		"dir": dir,
	})
	if err != nil {
		_ = d.fs.RemoveAll(dir)
		return nil, err
	}

	return &Plan{
		Stages: []Stage{
			{Name: "run", Argv: argv, Dir: dir, Timeout: d.prof.RunTimeout, Kind: StageRun},
		},
		fs:        d.fs,
		artifacts: []string{dir},
	}, nil
}

// nativeDriver handles compile-to-binary languages: a compile stage
// producing a temp executable, then a run stage invoking it. A compile
// failure short-circuits the run stage in the coordinator.
type nativeDriver struct {
	baseDriver
}

func (d *nativeDriver) BuildPlan(source string) (*Plan, error) {
	dir, src, err := d.writeSource(source, "main"+d.prof.Extension)
	if err != nil {
		return nil, err
	}

	out := filepath.Join(dir, "app")
	vars := map[string]string{
		"compiler": d.prof.CompilerBinary,
		"bin":      d.prof.Binary,
		"src":      src,
		"out":      out,
		"dir":      dir,
	}

	compileArgv, err := expandCommand(d.prof.CompileTemplate, vars)
	if err != nil {
		_ = d.fs.RemoveAll(dir)
		return nil, err
	}
	runArgv, err := expandCommand(d.prof.RunTemplate, vars)
	if err != nil {
		_ = d.fs.RemoveAll(dir)
		return nil, err
	}

	return &Plan{
		Stages: []Stage{
			{Name: "compile", Argv: compileArgv, Dir: dir, Timeout: d.prof.CompileTimeout, Kind: StageCompile},
			{Name: "run", Argv: runArgv, Dir: dir, Timeout: d.prof.RunTimeout, Kind: StageRun},
		},
		fs:        d.fs,
		artifacts: []string{dir},
	}, nil
}

// jvmDriver handles JVM-style languages where the toolchain mandates that
// the filename match the public type name, which is extracted from the
// source text.
type jvmDriver struct {
	baseDriver
}

func (d *jvmDriver) BuildPlan(source string) (*Plan, error) {
	entry := extractEntryClass(source)
	if entry == "" {
		return nil, ErrNoEntryClass
	}

	dir, src, err := d.writeSource(source, entry+d.prof.Extension)
	if err != nil {
		return nil, err
	}

	vars := map[string]string{
		"compiler": d.prof.CompilerBinary,
		"bin":      d.prof.Binary,
		"src":      src,
		"dir":      dir,
		"class":    entry,
	}

	compileArgv, err := expandCommand(d.prof.CompileTemplate, vars)
	if err != nil {
		_ = d.fs.RemoveAll(dir)
		return nil, err
	}
	runArgv, err := expandCommand(d.prof.RunTemplate, vars)
	if err != nil {
		_ = d.fs.RemoveAll(dir)
		return nil, err
	}

	return &Plan{
		Stages: []Stage{
			{Name: "compile", Argv: compileArgv, Dir: dir, Timeout: d.prof.CompileTimeout, Kind: StageCompile},
			{Name: "run", Argv: runArgv, Dir: dir, Timeout: d.prof.RunTimeout, Kind: StageRun},
		},
		fs:        d.fs,
		artifacts: []string{dir},
	}, nil
}

// extractEntryClass returns the first declared public class name, or ""
// when the source declares none.
func extractEntryClass(source string) string {
	match := entryClassPattern.FindStringSubmatch(source)
	if match == nil {
		return ""
	}
	return match[1]
}

// expandCommand substitutes {placeholder} variables into a command template
// and splits it into argv with shell-style tokenization.
func expandCommand(tpl string, vars map[string]string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, fmt.Errorf("empty command template")
	}
	expanded := tpl
	for key, value := range vars {
		expanded = strings.ReplaceAll(expanded, "{"+key+"}", value)
	}
	argv, err := shlex.Split(expanded)
	if err != nil {
		return nil, fmt.Errorf("parse command template %q: %w", tpl, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command template %q expanded to nothing", tpl)
	}
	return argv, nil
}
