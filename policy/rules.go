package policy

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/dmarkx/runbox/profile"
)

//go:embed rules.yaml
var rulesYAML []byte

// ruleFile mirrors the embedded rules.yaml layout.
type ruleFile struct {
	Languages map[string]languageRuleSpec `yaml:"languages"`
}

type languageRuleSpec struct {
	Deny             []denyRuleSpec `yaml:"deny"`
	AllowedImports   []string       `yaml:"allowed_imports"`
	DangerousModules []string       `yaml:"dangerous_modules"`
	DangerousHeaders []string       `yaml:"dangerous_headers"`
}

type denyRuleSpec struct {
	Pattern string `yaml:"pattern"`
	Note    string `yaml:"note"`
}

// denyRule is a compiled denylist entry.
type denyRule struct {
	re   *regexp.Regexp
	note string
}

// languageRules holds the compiled rule set for one language.
type languageRules struct {
	deny             []denyRule
	allowedImports   map[string]struct{}
	dangerousModules map[string]struct{}
	dangerousHeaders []string
}

// loadRules decodes and compiles the embedded rule set. Deny patterns are
// matched case-insensitively in multi-line mode.
func loadRules() (map[profile.Language]*languageRules, error) {
	var file ruleFile
	if err := yaml.Unmarshal(rulesYAML, &file); err != nil {
		return nil, fmt.Errorf("decode policy rules: %w", err)
	}

	rules := make(map[profile.Language]*languageRules, len(file.Languages))
	for name, spec := range file.Languages {
		lang, err := profile.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("policy rules reference %w", err)
		}

		compiled := &languageRules{
			allowedImports:   toSet(spec.AllowedImports),
			dangerousModules: toSet(spec.DangerousModules),
			dangerousHeaders: spec.DangerousHeaders,
		}
		for _, d := range spec.Deny {
			re, err := regexp.Compile("(?im)" + d.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compile deny pattern %q for %s: %w", d.Pattern, name, err)
			}
			compiled.deny = append(compiled.deny, denyRule{re: re, note: d.Note})
		}
		rules[lang] = compiled
	}

	for _, lang := range profile.All() {
		if _, ok := rules[lang]; !ok {
			return nil, fmt.Errorf("policy rules missing language %q", lang)
		}
	}

	return rules, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
