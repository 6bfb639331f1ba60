package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/costwise/costwise/internal/models"
)

const cleanupUnusedIPRuleID = "cleanup_unused_ip"

// UnusedIPRule flags reserved IP addresses that have been unattached longer
// than the configured threshold. The same preconditions as for snapshots
// apply: a known creation timestamp and a nonzero cost.
type UnusedIPRule struct{}

func (r UnusedIPRule) ID() string                  { return cleanupUnusedIPRuleID }
func (r UnusedIPRule) Name() string                { return "Unattached reserved IP" }
func (r UnusedIPRule) Category() models.Category   { return models.CategoryCost }
func (r UnusedIPRule) Kinds() []models.ResourceKind { return []models.ResourceKind{models.KindReservedIP} }
func (r UnusedIPRule) Vendors() []string           { return nil }

func (r UnusedIPRule) Evaluate(_ context.Context, rctx RuleContext, res *models.Resource) ([]models.RecommendationOutput, error) {
	if res.Status != models.StatusUnattached {
		return nil, nil
	}
	age, known := res.AgeDays(time.Now().UTC())
	if !known {
		return nil, nil
	}
	maxAge := rctx.Thresholds.IPMaxAge()
	if age <= maxAge || res.MonthlyCost <= 0 {
		return nil, nil
	}

	return []models.RecommendationOutput{{
		Type:  models.TypeCleanupUnusedIP,
		Title: fmt.Sprintf("Release reserved IP %s", res.Name),
		Description: fmt.Sprintf(
			"Reserved IP has been unattached for %d days (threshold %d).",
			age, maxAge),
		Category:                models.CategoryCost,
		Severity:                models.SeverityLow,
		EstimatedMonthlySavings: res.MonthlyCost,
		Currency:                res.Currency,
		Confidence:              0.95,
		Metrics: map[string]any{
			"age_days":     age,
			"max_age_days": maxAge,
			"monthly_cost": res.MonthlyCost,
		},
		ResourceID: res.ID,
		ProviderID: res.ProviderID,
	}}, nil
}
