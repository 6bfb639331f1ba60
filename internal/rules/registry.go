package rules

import (
	"fmt"

	"go.uber.org/zap"
)

// Registry holds the rules available to a process, partitioned by scope.
// It is constructed once at startup and injected into the orchestrator;
// there is no package-level singleton.
//
// Registration is fault-tolerant: a candidate that is not a Rule or
// GlobalRule, has an empty ID, duplicates an existing ID, or panics while
// reporting its identity is logged and skipped so that one broken
// implementation never prevents the others from loading.
type Registry struct {
	resource []Rule
	global   []GlobalRule
	index    map[string]struct{}
	logger   *zap.Logger
}

// NewRegistry returns an empty registry. logger may be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		index:  make(map[string]struct{}),
		logger: logger,
	}
}

// Register adds the given candidates, partitioning them by scope in
// argument order. Evaluation later happens in registration order.
func (r *Registry) Register(candidates ...any) {
	for _, c := range candidates {
		r.register(c)
	}
}

func (r *Registry) register(candidate any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("skipping rule that panicked during registration",
				zap.Any("panic", rec))
		}
	}()

	switch rule := candidate.(type) {
	case Rule:
		if !r.claim(rule.ID()) {
			return
		}
		r.resource = append(r.resource, rule)
	case GlobalRule:
		if !r.claim(rule.ID()) {
			return
		}
		r.global = append(r.global, rule)
	default:
		r.logger.Warn("skipping candidate that implements neither rule scope",
			zap.String("type", fmt.Sprintf("%T", candidate)))
	}
}

// claim validates and reserves a rule ID.
func (r *Registry) claim(id string) bool {
	if id == "" {
		r.logger.Warn("skipping rule with empty ID")
		return false
	}
	if _, exists := r.index[id]; exists {
		r.logger.Warn("skipping rule with duplicate ID", zap.String("rule", id))
		return false
	}
	r.index[id] = struct{}{}
	return true
}

// ResourceRules returns the resource-scoped rules in registration order.
func (r *Registry) ResourceRules() []Rule {
	return r.resource
}

// GlobalRules returns the global-scoped rules in registration order.
func (r *Registry) GlobalRules() []GlobalRule {
	return r.global
}

// Len returns the total number of registered rules across both scopes.
func (r *Registry) Len() int {
	return len(r.resource) + len(r.global)
}
