package rules

import (
	"context"
	"fmt"

	"github.com/costwise/costwise/internal/models"
)

const cleanupStoppedRuleID = "cleanup_stopped"

// StoppedResourceRule flags servers that are halted but still billed for
// their attached storage. Only STOPPED, DEALLOCATED and TERMINATED states
// qualify; the savings estimate is the storage-only cost basis, since
// compute charges already stopped with the machine.
type StoppedResourceRule struct{}

func (r StoppedResourceRule) ID() string                  { return cleanupStoppedRuleID }
func (r StoppedResourceRule) Name() string                { return "Stopped server with billed storage" }
func (r StoppedResourceRule) Category() models.Category   { return models.CategoryCost }
func (r StoppedResourceRule) Kinds() []models.ResourceKind { return []models.ResourceKind{models.KindServer} }
func (r StoppedResourceRule) Vendors() []string           { return nil }

func (r StoppedResourceRule) Evaluate(_ context.Context, rctx RuleContext, res *models.Resource) ([]models.RecommendationOutput, error) {
	if !res.Stopped() {
		return nil, nil
	}
	if res.Spec.StorageGB <= 0 {
		return nil, nil
	}

	savings := res.Spec.StorageGB * rctx.Thresholds.StoragePrice()
	return []models.RecommendationOutput{{
		Type:  models.TypeCleanupStopped,
		Title: fmt.Sprintf("Delete or archive stopped server %s", res.Name),
		Description: fmt.Sprintf(
			"Server is %s but its %.0f GB of storage keeps accruing charges.",
			res.Status, res.Spec.StorageGB),
		Category:                models.CategoryCost,
		Severity:                models.SeverityLow,
		EstimatedMonthlySavings: savings,
		Currency:                res.Currency,
		Confidence:              0.95,
		Metrics: map[string]any{
			"status":             string(res.Status),
			"storage_gb":         res.Spec.StorageGB,
			"storage_gb_price":   rctx.Thresholds.StoragePrice(),
			"daily_cost":         res.DailyCost,
			"monthly_cost":       res.MonthlyCost,
		},
		ResourceID: res.ID,
		ProviderID: res.ProviderID,
	}}, nil
}
