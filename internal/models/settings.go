package models

// Rule setting scopes as stored in the rule-setting store.
const (
	RuleScopeGlobal   = "global"
	RuleScopeProvider = "provider"
)

// RuleSetting is one stored enable/disable row for a rule. Global-scope rows
// disable a rule everywhere; provider-scope rows disable it for resources of
// one vendor only.
type RuleSetting struct {
	RuleID      string       `json:"rule_id"`
	Scope       string       `json:"scope"`
	Vendor      string       `json:"vendor,omitempty"`
	Kind        ResourceKind `json:"kind,omitempty"`
	Enabled     bool         `json:"enabled"`
	Description string       `json:"description,omitempty"`
}
