// Package policy implements static pre-execution safety checks and output
// sanitization for untrusted source code.
//
// The Guard rejects source text that matches per-language denylists, pulls
// in disallowed modules or headers, or exceeds the size limit. It is a pure
// predicate: no subprocess is spawned and no I/O happens, so it is cheap
// enough to run on every evaluation the host UI triggers. Any internal
// failure during checking counts as a rejection (fail closed).
//
// Denylist-based screening reduces risk but does not eliminate it; it is
// not a substitute for kernel-level isolation. A production deployment
// should additionally confine execution in a container, jail or VM.
//
// Usage:
//
//	guard, err := policy.NewGuard(cfg, log)
//	if err := guard.Check(source, profile.Python); err != nil {
//	    // rejected, err describes the violated rule
//	}
package policy
