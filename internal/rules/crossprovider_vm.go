package rules

import (
	"context"
	"fmt"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/normalize"
)

const crossProviderVMRuleID = "cross_provider_vm"

// CrossProviderVMRule compares a running server against the price catalogs
// of competing vendors and recommends migration when an equivalent SKU is
// meaningfully cheaper.
//
// Vendors the user dismissed are excluded and user-enabled vendors are
// preferred; both lists are re-queried on every evaluation rather than
// cached across resources. Geographically matching regions are tried before
// falling back to any region. When the server's compute shape is unknown
// the rule still matches in low-confidence mode with the finding confidence
// capped accordingly.
type CrossProviderVMRule struct{}

func (r CrossProviderVMRule) ID() string                  { return crossProviderVMRuleID }
func (r CrossProviderVMRule) Name() string                { return "Cheaper equivalent at another vendor" }
func (r CrossProviderVMRule) Category() models.Category   { return models.CategoryCost }
func (r CrossProviderVMRule) Kinds() []models.ResourceKind { return []models.ResourceKind{models.KindServer} }
func (r CrossProviderVMRule) Vendors() []string           { return nil }

func (r CrossProviderVMRule) Evaluate(ctx context.Context, rctx RuleContext, res *models.Resource) ([]models.RecommendationOutput, error) {
	if res.Status != models.StatusActive || res.IsClusterMember() || res.MonthlyCost <= 0 {
		return nil, nil
	}

	dismissed, err := rctx.Settings.DismissedVendors(ctx, rctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("dismissed vendors: %w", err)
	}
	preferred, err := rctx.Settings.PreferredVendors(ctx, rctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("preferred vendors: %w", err)
	}

	req := normalize.FromResource(res)
	entries, err := rctx.Catalog.Query(ctx, models.CatalogFilter{
		ExcludeVendors: append(dismissed, res.Vendor),
		Kind:           models.KindServer,
		VCPU:           req.VCPU,
		MinMemoryGB:    req.MemoryGB * 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("cross-provider catalog query: %w", err)
	}

	best, ok := bestOffer(req, entries, preferred, rctx.Thresholds.Candidates(), res.MonthlyCost-rctx.Thresholds.MinSavings())
	if !ok {
		return nil, nil
	}

	savings := res.MonthlyCost - best.Entry.MonthlyCost
	return []models.RecommendationOutput{{
		Type:  models.TypeCrossProviderVM,
		Title: fmt.Sprintf("Migrate %s to %s (%s)", res.Name, best.Entry.Vendor, best.Entry.SKU),
		Description: fmt.Sprintf(
			"%s offers an equivalent configuration at %.0f/month versus the current %.0f/month.",
			best.Entry.Vendor, best.Entry.MonthlyCost, res.MonthlyCost),
		Category:                models.CategoryCost,
		Severity:                severityForSavings(savings, res.MonthlyCost),
		EstimatedMonthlySavings: savings,
		Currency:                res.Currency,
		Confidence:              normalize.ConfidenceFor(req, best.Score),
		Metrics: map[string]any{
			"match_score":          best.Score,
			"current_monthly_cost": res.MonthlyCost,
			"target_monthly_cost":  best.Entry.MonthlyCost,
		},
		Insights: map[string]any{
			"target_vcpu":       best.Entry.VCPU,
			"target_memory_gb":  best.Entry.MemoryGB,
			"target_storage_gb": best.Entry.StorageGB,
			"geo_match":         normalize.SameGeo(best.Entry.Region, res.Region),
		},
		TargetVendor: best.Entry.Vendor,
		TargetSKU:    best.Entry.SKU,
		TargetRegion: best.Entry.Region,
		ResourceID:   res.ID,
		ProviderID:   res.ProviderID,
	}}, nil
}

// bestOffer runs the candidate search geo-first, prefers user-enabled
// vendors, and returns the top candidate whose monthly cost is at or below
// maxCost (current cost minus the minimum-savings threshold).
func bestOffer(req normalize.SKU, entries []models.PriceCatalogEntry, preferred []string, limit int, maxCost float64) (normalize.Candidate, bool) {
	opts := normalize.SearchOptions{
		Region:   req.Region,
		MinScore: normalize.MinScoreFor(req),
		Limit:    limit,
	}
	candidates := normalize.Candidates(req, entries, opts)
	if len(candidates) == 0 {
		opts.Region = ""
		candidates = normalize.Candidates(req, entries, opts)
	}

	pick := func(cands []normalize.Candidate) (normalize.Candidate, bool) {
		for _, c := range cands {
			if c.Entry.MonthlyCost <= maxCost {
				return c, true
			}
		}
		return normalize.Candidate{}, false
	}

	if len(preferred) > 0 {
		var subset []normalize.Candidate
		for _, c := range candidates {
			if !containsVendor(c.Entry.Vendor, preferred) {
				continue
			}
			subset = append(subset, c)
		}
		if best, ok := pick(subset); ok {
			return best, true
		}
	}
	return pick(candidates)
}

// severityForSavings grades a migration finding by its relative saving.
func severityForSavings(savings, current float64) models.Severity {
	if current > 0 && savings/current >= 0.5 {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}
