package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/costwise/costwise/internal/models"
)

const cleanupOldSnapshotRuleID = "cleanup_old_snapshot"

// OldSnapshotRule flags snapshots older than the configured age threshold.
// Snapshots without a known creation timestamp or without a nonzero cost are
// skipped: both are preconditions for an actionable, quantified finding.
// The savings estimate is the snapshot's full monthly cost, since deleting
// it removes the charge entirely.
type OldSnapshotRule struct{}

func (r OldSnapshotRule) ID() string                  { return cleanupOldSnapshotRuleID }
func (r OldSnapshotRule) Name() string                { return "Aged snapshot" }
func (r OldSnapshotRule) Category() models.Category   { return models.CategoryCost }
func (r OldSnapshotRule) Kinds() []models.ResourceKind { return []models.ResourceKind{models.KindSnapshot} }
func (r OldSnapshotRule) Vendors() []string           { return nil }

func (r OldSnapshotRule) Evaluate(_ context.Context, rctx RuleContext, res *models.Resource) ([]models.RecommendationOutput, error) {
	age, known := res.AgeDays(time.Now().UTC())
	if !known {
		return nil, nil
	}
	maxAge := rctx.Thresholds.SnapshotMaxAge()
	if age <= maxAge || res.MonthlyCost <= 0 {
		return nil, nil
	}

	return []models.RecommendationOutput{{
		Type:  models.TypeCleanupOldSnapshot,
		Title: fmt.Sprintf("Delete snapshot %s (%d days old)", res.Name, age),
		Description: fmt.Sprintf(
			"Snapshot was created %d days ago, past the %d-day retention threshold.",
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
