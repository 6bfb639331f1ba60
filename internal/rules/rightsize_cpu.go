package rules

import (
	"context"
	"fmt"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/normalize"
)

const rightsizeCPURuleID = "rightsize_cpu"

// RightsizeCPURule flags running servers whose recent average CPU
// utilisation is below the configured threshold and for which the same
// vendor offers a cheaper tier one step down.
//
// Servers billed as part of an aggregate (managed clusters, Kubernetes node
// pools) are skipped: their sizing is decided at cluster level. Single-vCPU
// servers are skipped because there is no tier below them. When no cheaper
// smaller tier exists in the catalog the rule emits nothing rather than an
// unactionable finding.
type RightsizeCPURule struct{}

func (r RightsizeCPURule) ID() string                  { return rightsizeCPURuleID }
func (r RightsizeCPURule) Name() string                { return "CPU-underutilised server" }
func (r RightsizeCPURule) Category() models.Category   { return models.CategoryCost }
func (r RightsizeCPURule) Kinds() []models.ResourceKind { return []models.ResourceKind{models.KindServer} }
func (r RightsizeCPURule) Vendors() []string           { return nil }

func (r RightsizeCPURule) Evaluate(ctx context.Context, rctx RuleContext, res *models.Resource) ([]models.RecommendationOutput, error) {
	if res.Status != models.StatusActive || res.IsClusterMember() {
		return nil, nil
	}
	if res.Spec.VCPU <= 1 || res.MonthlyCost <= 0 {
		return nil, nil
	}

	util, known := res.CPUUtilization()
	if !known {
		return nil, nil
	}
	threshold := rctx.Thresholds.CPUThreshold()
	if util >= threshold {
		return nil, nil
	}

	entries, err := rctx.Catalog.Query(ctx, models.CatalogFilter{
		Vendor:         res.Vendor,
		Kind:           models.KindServer,
		RegionPrefix:   normalize.RegionCountry(res.Region),
		MaxVCPU:        res.Spec.VCPU,
		MaxMonthlyCost: res.MonthlyCost,
	})
	if err != nil {
		return nil, fmt.Errorf("rightsize catalog query: %w", err)
	}

	target, ok := tierOneStepDown(res, entries)
	if !ok {
		return nil, nil
	}

	savings := res.MonthlyCost - target.MonthlyCost
	return []models.RecommendationOutput{{
		Type:     models.TypeRightsizeCPU,
		Title:    fmt.Sprintf("Downsize %s to %s", res.Name, target.SKU),
		Description: fmt.Sprintf(
			"Average CPU utilisation is %.1f%% (threshold %.0f%%). A %d-vCPU tier covers the observed load.",
			util, threshold, target.VCPU),
		Category:                models.CategoryCost,
		Severity:                models.SeverityMedium,
		EstimatedMonthlySavings: savings,
		Currency:                res.Currency,
		Confidence:              0.9,
		Metrics: map[string]any{
			"cpu_utilization_percent": util,
			"cpu_threshold_percent":   threshold,
			"current_vcpu":            res.Spec.VCPU,
			"current_monthly_cost":    res.MonthlyCost,
			"target_monthly_cost":     target.MonthlyCost,
		},
		Insights: map[string]any{
			"target_vcpu":      target.VCPU,
			"target_memory_gb": target.MemoryGB,
		},
		TargetVendor: target.Vendor,
		TargetSKU:    target.SKU,
		TargetRegion: target.Region,
		ResourceID:   res.ID,
		ProviderID:   res.ProviderID,
	}}, nil
}

// tierOneStepDown picks the catalog entry that is the smallest downsizing
// step: the largest vCPU count strictly below the current one, cheapest
// entry at that count, with memory not diverging more than the candidate
// filter allows.
func tierOneStepDown(res *models.Resource, entries []models.PriceCatalogEntry) (models.PriceCatalogEntry, bool) {
	var (
		best  models.PriceCatalogEntry
		found bool
	)
	for _, e := range entries {
		if e.VCPU <= 0 || e.VCPU >= res.Spec.VCPU || e.MonthlyCost >= res.MonthlyCost {
			continue
		}
		// Halved memory means a different family, not a smaller tier.
		if res.Spec.MemoryGB > 0 && e.MemoryGB > 0 && e.MemoryGB < res.Spec.MemoryGB/2 {
			continue
		}
		if !found || e.VCPU > best.VCPU || (e.VCPU == best.VCPU && e.MonthlyCost < best.MonthlyCost) {
			best = e
			found = true
		}
	}
	return best, found
}
