// Package policy holds the tunable knobs of the recommendation engine:
// disable decisions and numeric thresholds. It has no store or rule
// dependencies so both sides can import it.
package policy

import "github.com/costwise/costwise/internal/models"

// Decision explains why a rule was skipped. Ordering reflects precedence:
// a config-level disable wins over a stored global one, which wins over a
// vendor-scoped one.
type Decision string

const (
	DecisionConfigDisabled   Decision = "config_disabled"
	DecisionGloballyDisabled Decision = "globally_disabled"
	DecisionScopedDisabled   Decision = "scoped_disabled"
	DecisionApplicable       Decision = "applicable"
)

// DisablePolicy answers whether a rule is disabled for a given vendor.
// It merges two sources at construction time: the deployment config's
// disabled-rule list and the user's stored rule settings.
type DisablePolicy struct {
	config map[string]struct{}
	global map[string]struct{}
	// scoped maps rule ID to the set of vendors it is disabled for.
	scoped map[string]map[string]struct{}
}

// NewDisablePolicy builds the merged policy. Both arguments may be nil or
// empty. Stored settings with Enabled true are ignored: absence of a disable
// row is what enables a rule.
func NewDisablePolicy(configDisabled []string, settings []models.RuleSetting) *DisablePolicy {
	p := &DisablePolicy{
		config: make(map[string]struct{}),
		global: make(map[string]struct{}),
		scoped: make(map[string]map[string]struct{}),
	}
	for _, id := range configDisabled {
		if id != "" {
			p.config[id] = struct{}{}
		}
	}
	for _, s := range settings {
		if s.Enabled || s.RuleID == "" {
			continue
		}
		switch s.Scope {
		case models.RuleScopeProvider:
			if s.Vendor == "" {
				continue
			}
			if p.scoped[s.RuleID] == nil {
				p.scoped[s.RuleID] = make(map[string]struct{})
			}
			p.scoped[s.RuleID][s.Vendor] = struct{}{}
		default:
			p.global[s.RuleID] = struct{}{}
		}
	}
	return p
}

// Disabled reports whether ruleID is disabled for resources of the given
// vendor, and why. vendor may be empty for global-scope rules, in which case
// only the config and global tiers apply. Safe on a nil receiver.
func (p *DisablePolicy) Disabled(ruleID, vendor string) (Decision, bool) {
	if p == nil {
		return DecisionApplicable, false
	}
	if _, ok := p.config[ruleID]; ok {
		return DecisionConfigDisabled, true
	}
	if _, ok := p.global[ruleID]; ok {
		return DecisionGloballyDisabled, true
	}
	if vendor != "" {
		if vendors, ok := p.scoped[ruleID]; ok {
			if _, ok := vendors[vendor]; ok {
				return DecisionScopedDisabled, true
			}
		}
	}
	return DecisionApplicable, false
}
