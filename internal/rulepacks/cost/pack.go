// Package cost provides the rule pack for sizing and cross-provider price
// comparison. New returns every rule in evaluation order; callers register
// the slice into a rules.Registry in one loop rather than listing each rule.
//
// Adding a new cost rule:
//  1. Implement the rule in internal/rules/ following the Rule or
//     GlobalRule interface.
//  2. Append it to the slice returned by New().
//  3. No other files need to change.
package cost

import "github.com/costwise/costwise/internal/rules"

// New returns all cost rules in the order they should be evaluated.
// The slice mixes resource-scoped and global-scoped rules; the registry
// partitions them.
func New() []any {
	return []any{
		rules.RightsizeCPURule{},
		rules.CrossProviderVMRule{},
		rules.CrossProviderClusterRule{},
	}
}
