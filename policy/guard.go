package policy

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dmarkx/runbox/config"
	"github.com/dmarkx/runbox/profile"
)

// Violation describes why the guard rejected a piece of source code.
type Violation struct {
	Rule string
}

func (v *Violation) Error() string {
	return "policy violation: " + v.Rule
}

// Residual per-language checks, applied after the denylist and the
// import/header screening.
var (
	pythonDunderAccess  = regexp.MustCompile(`\.__\w+__`)
	pythonCodeObjects   = regexp.MustCompile(`\.(func_code|gi_code|cr_code)\b`)
	pythonEvalFamily    = regexp.MustCompile(`\b(compile|eval|exec|globals|locals|vars)\s*\(`)
	jsPrototypeMutation = regexp.MustCompile(`\.prototype\s*[=\[]`)
	jsConstructorAccess = regexp.MustCompile(`\.constructor`)
	javaGetClass        = regexp.MustCompile(`\.getClass\s*\(\)`)
	javaNativeMethod    = regexp.MustCompile(`\bnative\s+`)
	cppPointerOffset    = regexp.MustCompile(`\*\s*\(\s*\w+\s*\+`)
	cppInlineAssembly   = regexp.MustCompile(`(?i)\basm\s*\(`)

	pythonImportStmt = regexp.MustCompile(`(?m)^\s*(?:from\s+([A-Za-z_][\w.]*)\s+)?import\s+(.+)$`)
	cppIncludeStmt   = regexp.MustCompile(`#include\s*[<"]([^>"]+)[>"]`)
)

// Modules importable without appearing in the allowlist.
var pythonImplicitAllowed = map[string]struct{}{
	"builtins":    {},
	"":            {},
	"typing":      {},
	"dataclasses": {},
	"enum":        {},
}

// Guard performs static safety checks on source code before execution.
type Guard struct {
	logger         *zap.Logger
	maxSourceBytes int
	rules          map[profile.Language]*languageRules
}

// NewGuard builds a Guard from the embedded rule set and the configured
// source size limit.
func NewGuard(cfg *config.Config, logger *zap.Logger) (*Guard, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	return &Guard{
		logger:         logger,
		maxSourceBytes: cfg.Policy.MaxSourceBytes,
		rules:          rules,
	}, nil
}

// Check returns nil when the source is accepted and a *Violation when it is
// rejected. Checks short-circuit on the first failure. A panic anywhere in
// the checking machinery is converted into a rejection.
func (g *Guard) Check(source string, lang profile.Language) (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("policy check panicked, rejecting source", zap.Any("cause", r))
			err = &Violation{Rule: "internal policy check failure"}
		}
	}()

	rules, ok := g.rules[lang]
	if !ok {
		// Fail closed for languages the rule set does not know.
		return &Violation{Rule: fmt.Sprintf("no policy rules for language %q", lang)}
	}

	if len(source) > g.maxSourceBytes {
		return &Violation{Rule: fmt.Sprintf("source exceeds %d bytes", g.maxSourceBytes)}
	}

	for _, rule := range rules.deny {
		if rule.re.MatchString(source) {
			return &Violation{Rule: fmt.Sprintf("%s (%s)", rule.note, rule.re.String())}
		}
	}

	if lang == profile.Python {
		if v := checkPythonImports(source, rules); v != nil {
			return v
		}
	}

	if lang == profile.CPP {
		if v := checkCPPHeaders(source, rules); v != nil {
			return v
		}
	}

	return residualCheck(source, lang)
}

// Violations reports every rule the source breaks, for advisory display in
// the host UI. Unlike Check it does not short-circuit.
func (g *Guard) Violations(source string, lang profile.Language) []string {
	var found []string

	rules, ok := g.rules[lang]
	if !ok {
		return []string{fmt.Sprintf("no policy rules for language %q", lang)}
	}

	if len(source) > g.maxSourceBytes {
		found = append(found, fmt.Sprintf("source exceeds %d bytes", g.maxSourceBytes))
	}

	for _, rule := range rules.deny {
		if rule.re.MatchString(source) {
			found = append(found, fmt.Sprintf("dangerous pattern: %s (%s)", rule.note, rule.re.String()))
		}
	}

	if lang == profile.Python {
		if v := checkPythonImports(source, rules); v != nil {
			found = append(found, v.Rule)
		}
	}
	if lang == profile.CPP {
		if v := checkCPPHeaders(source, rules); v != nil {
			found = append(found, v.Rule)
		}
	}
	if err := residualCheck(source, lang); err != nil {
		if v, ok := err.(*Violation); ok {
			found = append(found, v.Rule)
		}
	}

	return found
}

// checkPythonImports resolves top-level module names from import statements
// and rejects any dangerous module that is not explicitly allowlisted.
func checkPythonImports(source string, rules *languageRules) *Violation {
	for _, match := range pythonImportStmt.FindAllStringSubmatch(source, -1) {
		fromModule, imported := match[1], match[2]

		var names []string
		if fromModule != "" {
			names = []string{fromModule}
		} else {
			for _, part := range strings.Split(imported, ",") {
				name := strings.TrimSpace(part)
				if idx := strings.Index(name, " as "); idx >= 0 {
					name = name[:idx]
				}
				names = append(names, name)
			}
		}

		for _, name := range names {
			base := strings.SplitN(name, ".", 2)[0]
			if _, allowed := rules.allowedImports[base]; allowed {
				continue
			}
			if _, implicit := pythonImplicitAllowed[base]; implicit {
				continue
			}
			if _, dangerous := rules.dangerousModules[base]; dangerous {
				return &Violation{Rule: fmt.Sprintf("dangerous module import: %s", base)}
			}
		}
	}
	return nil
}

// checkCPPHeaders rejects includes whose name contains a dangerous header
// substring.
func checkCPPHeaders(source string, rules *languageRules) *Violation {
	for _, match := range cppIncludeStmt.FindAllStringSubmatch(source, -1) {
		header := match[1]
		for _, dangerous := range rules.dangerousHeaders {
			if strings.Contains(header, dangerous) {
				return &Violation{Rule: fmt.Sprintf("dangerous header include: %s", header)}
			}
		}
	}
	return nil
}

// residualCheck applies the language-specific patterns that do not fit the
// generic denylist shape.
func residualCheck(source string, lang profile.Language) error {
	switch lang {
	case profile.Python:
		if pythonDunderAccess.MatchString(source) || pythonCodeObjects.MatchString(source) {
			return &Violation{Rule: "reflective attribute access"}
		}
		if pythonEvalFamily.MatchString(source) {
			return &Violation{Rule: "dynamic evaluation builtin"}
		}
	case profile.JavaScript:
		if jsPrototypeMutation.MatchString(source) {
			return &Violation{Rule: "prototype mutation"}
		}
		if jsConstructorAccess.MatchString(source) {
			return &Violation{Rule: "constructor access"}
		}
	case profile.Java:
		if javaGetClass.MatchString(source) {
			return &Violation{Rule: "reflection entry point"}
		}
		if javaNativeMethod.MatchString(source) {
			return &Violation{Rule: "native method declaration"}
		}
	case profile.CPP:
		if cppPointerOffset.MatchString(source) {
			return &Violation{Rule: "raw pointer offset arithmetic"}
		}
		if cppInlineAssembly.MatchString(source) {
			return &Violation{Rule: "inline assembly"}
		}
	}
	return nil
}
