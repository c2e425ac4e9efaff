// Package sandbox provides secure code execution capabilities.
//
// The sandbox package implements the execution engine for running untrusted
// code in throwaway subprocesses. Per-language drivers plan the compile and
// run stages and manage temporary artifacts, the process runner spawns each
// stage with a scrubbed environment and best-effort OS resource limits, and
// the Coordinator serializes requests so at most one execution is in flight
// at any instant. A request that arrives while another is running pre-empts
// it: the previous process tree is terminated before the new one starts.
//
// Isolation is coarse by design: pattern-based static rejection (package
// policy) plus rlimits and forced termination, not namespaces or VMs.
//
// Usage:
//
//	coord := sandbox.NewCoordinator(cfg, log, guard)
//	result := coord.Execute(ctx, `print("Hello, World!")`, "python")
//	fmt.Println(result.Format())
package sandbox
