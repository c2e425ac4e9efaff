package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Language identifies one of the supported languages.
type Language string

// Supported languages.
const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	Java       Language = "java"
	CPP        Language = "cpp"
)

// ErrUnknownLanguage is returned when a language identifier does not map to
// a supported language.
var ErrUnknownLanguage = errors.New("unknown language")

// Default per-stage timeouts. Run stages are short because they execute
// user code; compile stages get a larger budget for toolchain startup.
const (
	DefaultRunTimeout     = 10 * time.Second
	DefaultCompileTimeout = 30 * time.Second
)

// Profile describes how to compile and run a language.
//
// Command templates use placeholders expanded by the sandbox driver:
// {bin} and {compiler} for the toolchain binaries, {src} for the source
// file, {out} for the produced executable, {dir} for the working directory
// and {class} for the extracted entry type name of JVM-style languages.
type Profile struct {
	Language        Language
	DisplayName     string
	Binary          string // interpreter or runtime binary
	CompilerBinary  string // empty for interpreted languages
	CompileTemplate string // empty for interpreted languages
	RunTemplate     string
	Extension       string
	CompileTimeout  time.Duration
	RunTimeout      time.Duration
	Compiled        bool
	JVMStyle        bool // toolchain mandates filename == public type name
}

var profiles = map[Language]Profile{
	Python: {
		Language:    Python,
		DisplayName: "Python",
		Binary:      "python3",
		RunTemplate: "{bin} {src}",
		Extension:   ".py",
		RunTimeout:  DefaultRunTimeout,
	},
	JavaScript: {
		Language:    JavaScript,
		DisplayName: "JavaScript",
		Binary:      "node",
		RunTemplate: "{bin} {src}",
		Extension:   ".js",
		RunTimeout:  DefaultRunTimeout,
	},
	Java: {
		Language:        Java,
		DisplayName:     "Java",
		Binary:          "java",
		CompilerBinary:  "javac",
		CompileTemplate: "{compiler} {src}",
		RunTemplate:     "{bin} -cp {dir} {class}",
		Extension:       ".java",
		CompileTimeout:  DefaultCompileTimeout,
		RunTimeout:      DefaultRunTimeout,
		Compiled:        true,
		JVMStyle:        true,
	},
	CPP: {
		Language:        CPP,
		DisplayName:     "C++",
		Binary:          "",
		CompilerBinary:  "g++",
		CompileTemplate: "{compiler} -o {out} {src}",
		RunTemplate:     "{out}",
		Extension:       ".cpp",
		CompileTimeout:  DefaultCompileTimeout,
		RunTimeout:      DefaultRunTimeout,
		Compiled:        true,
	},
}

// Parse maps a language identifier to a Language.
func Parse(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
	return lang, nil
}

// For returns the static profile of a supported language.
func For(lang Language) (Profile, error) {
	p, ok := profiles[lang]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	return p, nil
}

// All returns every supported language in a stable order.
func All() []Language {
	return []Language{Python, JavaScript, Java, CPP}
}

// Binaries returns the toolchain binaries the language requires, compiler
// first for compiled languages.
func (p Profile) Binaries() []string {
	var bins []string
	if p.CompilerBinary != "" {
		bins = append(bins, p.CompilerBinary)
	}
	if p.Binary != "" {
		bins = append(bins, p.Binary)
	}
	return bins
}
