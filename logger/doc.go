// Package logger provides structured logging capabilities.
//
// The logger package sets up and configures the sandbox's logging system
// using zap, providing structured, high-performance logging throughout
// the library. The host application decides the mode and verbosity via
// configuration.
//
// Usage:
//
//	log, err := logger.New("development", "debug")
//	if err != nil {
//	    panic(err)
//	}
//	log.Info("execution started", zap.String("language", "python"))
package logger
