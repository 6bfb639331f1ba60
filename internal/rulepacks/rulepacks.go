// Package rulepacks wires every built-in rule pack into a registry.
package rulepacks

import (
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/rulepacks/cleanup"
	"github.com/costwise/costwise/internal/rulepacks/cost"
	"github.com/costwise/costwise/internal/rules"
)

// Discover builds a registry containing every built-in rule, pack by pack,
// in evaluation order. Faulty rule implementations are skipped by the
// registry with a warning; discovery itself never fails.
func Discover(logger *zap.Logger) *rules.Registry {
	registry := rules.NewRegistry(logger)
	registry.Register(cost.New()...)
	registry.Register(cleanup.New()...)
	return registry
}
