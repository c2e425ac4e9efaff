// Package config provides application configuration management.
//
// The config package handles loading and validation of the sandbox
// configuration from YAML files. It covers logging, execution resource
// limits and timeouts, static policy limits, and per-language toolchain
// overrides. Every setting has a sensible default so the library works
// without a config file.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("run timeout: %s\n", cfg.RunTimeout())
package config
