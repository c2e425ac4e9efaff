package policy

import (
	"regexp"
	"unicode/utf8"
)

// Patterns scrubbed from any output surfaced to the caller.
var (
	unixPathPattern    = regexp.MustCompile(`/[/\w.-]+`)
	windowsPathPattern = regexp.MustCompile(`[A-Za-z]:\\[\\\w.-]+`)
	ipAddressPattern   = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
)

const (
	pathRemovedMarker = "[PATH_REMOVED]"
	ipRemovedMarker   = "[IP_REMOVED]"
	truncationMarker  = "\n... [Output truncated for security]"
)

// Sanitizer scrubs security-sensitive substrings from execution output and
// bounds its length.
type Sanitizer struct {
	maxBytes int
}

// NewSanitizer returns a Sanitizer capping output at maxBytes.
func NewSanitizer(maxBytes int) *Sanitizer {
	return &Sanitizer{maxBytes: maxBytes}
}

// Sanitize removes filesystem paths and IP-address-shaped substrings from
// the output and truncates it to the configured limit.
func (s *Sanitizer) Sanitize(output string) string {
	output = unixPathPattern.ReplaceAllString(output, pathRemovedMarker)
	output = windowsPathPattern.ReplaceAllString(output, pathRemovedMarker)
	output = ipAddressPattern.ReplaceAllString(output, ipRemovedMarker)

	if len(output) > s.maxBytes {
		cut := s.maxBytes
		// Back off to a rune boundary so truncation never emits a torn
		// multi-byte character.
		for cut > 0 && !utf8.RuneStart(output[cut]) {
			cut--
		}
		output = output[:cut] + truncationMarker
	}

	return output
}
