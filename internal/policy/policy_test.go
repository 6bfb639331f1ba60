package policy

import (
	"testing"

	"github.com/costwise/costwise/internal/models"
)

func TestDisablePolicy_NilReceiver(t *testing.T) {
	var p *DisablePolicy
	decision, off := p.Disabled("anything", "aws")
	if off {
		t.Error("nil policy must disable nothing")
	}
	if decision != DecisionApplicable {
		t.Errorf("decision = %q; want %q", decision, DecisionApplicable)
	}
}

func TestDisablePolicy_Tiers(t *testing.T) {
	settings := []models.RuleSetting{
		{RuleID: "rule_global", Scope: models.RuleScopeGlobal, Enabled: false},
		{RuleID: "rule_scoped", Scope: models.RuleScopeProvider, Vendor: "aws", Enabled: false},
		{RuleID: "rule_enabled", Scope: models.RuleScopeGlobal, Enabled: true},
	}
	p := NewDisablePolicy([]string{"rule_config"}, settings)

	tests := []struct {
		name     string
		ruleID   string
		vendor   string
		want     Decision
		disabled bool
	}{
		{"config tier", "rule_config", "aws", DecisionConfigDisabled, true},
		{"global tier", "rule_global", "aws", DecisionGloballyDisabled, true},
		{"global tier ignores vendor", "rule_global", "", DecisionGloballyDisabled, true},
		{"scoped tier matching vendor", "rule_scoped", "aws", DecisionScopedDisabled, true},
		{"scoped tier other vendor", "rule_scoped", "gcp", DecisionApplicable, false},
		{"scoped tier without vendor", "rule_scoped", "", DecisionApplicable, false},
		{"enabled row is ignored", "rule_enabled", "aws", DecisionApplicable, false},
		{"unknown rule", "rule_unknown", "aws", DecisionApplicable, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			decision, off := p.Disabled(tc.ruleID, tc.vendor)
			if off != tc.disabled {
				t.Errorf("disabled = %v; want %v", off, tc.disabled)
			}
			if decision != tc.want {
				t.Errorf("decision = %q; want %q", decision, tc.want)
			}
		})
	}
}

func TestDisablePolicy_ConfigBeatsStoredTiers(t *testing.T) {
	settings := []models.RuleSetting{
		{RuleID: "shared", Scope: models.RuleScopeProvider, Vendor: "aws", Enabled: false},
	}
	p := NewDisablePolicy([]string{"shared"}, settings)

	decision, off := p.Disabled("shared", "aws")
	if !off || decision != DecisionConfigDisabled {
		t.Errorf("got (%q, %v); config tier must win over scoped", decision, off)
	}
}

func TestDisablePolicy_IgnoresMalformedRows(t *testing.T) {
	settings := []models.RuleSetting{
		{RuleID: "", Scope: models.RuleScopeGlobal, Enabled: false},
		{RuleID: "vendorless", Scope: models.RuleScopeProvider, Vendor: "", Enabled: false},
	}
	p := NewDisablePolicy([]string{""}, settings)

	if _, off := p.Disabled("", "aws"); off {
		t.Error("empty rule IDs must never disable anything")
	}
	if _, off := p.Disabled("vendorless", "aws"); off {
		t.Error("provider-scope rows without a vendor must be dropped")
	}
}
