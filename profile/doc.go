// Package profile defines the closed set of supported languages and their
// static execution profiles.
//
// A Profile describes everything the sandbox needs to know about a language
// before any process is spawned: which toolchain binaries it uses, the
// command templates for its compile and run stages, the source file
// extension, and per-stage timeouts. Profiles are immutable descriptors;
// runtime overrides (alternative binary paths, custom command templates)
// are merged in from configuration by the sandbox package.
//
// Usage:
//
//	lang, err := profile.Parse("python")
//	prof, err := profile.For(lang)
//	fmt.Println(prof.RunTemplate)
package profile
