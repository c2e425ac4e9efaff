// Package runbox wires the sandboxed multi-language code execution
// subsystem for embedding into a host application.
//
// The subsystem takes untrusted source text plus a language identifier,
// statically screens it, runs it in an isolated subprocess under resource
// limits, and returns a human-readable result string. It exposes no
// network or CLI surface of its own; the host invokes it in process.
//
// Hosts built on Uber's fx use Module; everyone else uses New.
package runbox

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dmarkx/runbox/config"
	"github.com/dmarkx/runbox/logger"
	"github.com/dmarkx/runbox/policy"
	"github.com/dmarkx/runbox/sandbox"
)

// Module provides the execution subsystem to an fx-based host application.
var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.NewFromConfig,
		policy.NewGuard,
		newCoordinator,
	),
)

func newCoordinator(cfg *config.Config, log *zap.Logger, guard *policy.Guard) *sandbox.Coordinator {
	return sandbox.NewCoordinator(cfg, log, guard)
}

// New assembles a ready-to-use Coordinator from configuration defaults,
// for hosts that do not use dependency injection.
func New() (*sandbox.Coordinator, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	guard, err := policy.NewGuard(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build policy guard: %w", err)
	}
	return sandbox.NewCoordinator(cfg, log, guard), nil
}
