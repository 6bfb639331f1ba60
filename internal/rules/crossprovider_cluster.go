package rules

import (
	"context"
	"fmt"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/normalize"
)

const crossProviderClusterRuleID = "cross_provider_cluster"

// CrossProviderClusterRule is the global-scoped counterpart of
// CrossProviderVMRule for managed PostgreSQL/MySQL/Kafka/Redis/Kubernetes
// clusters. It is evaluated once per run over the full inventory because a
// cluster's cost is an aggregate: the cluster resource itself plus every
// member resource linked through the cluster tag (worker servers, volumes,
// load balancers).
//
// Per cluster it derives the per-node shape, searches competing vendors for
// a matching SKU in a geo-matching region first and any region second, and
// recommends migration when the aggregated saving clears the configured
// minimum.
type CrossProviderClusterRule struct{}

func (r CrossProviderClusterRule) ID() string                { return crossProviderClusterRuleID }
func (r CrossProviderClusterRule) Name() string              { return "Cheaper managed cluster at another vendor" }
func (r CrossProviderClusterRule) Category() models.Category { return models.CategoryCost }

func (r CrossProviderClusterRule) EvaluateGlobal(ctx context.Context, rctx RuleContext, inventory []models.Resource) ([]models.RecommendationOutput, error) {
	dismissed, err := rctx.Settings.DismissedVendors(ctx, rctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("dismissed vendors: %w", err)
	}
	preferred, err := rctx.Settings.PreferredVendors(ctx, rctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("preferred vendors: %w", err)
	}

	members := membersByCluster(inventory)

	var out []models.RecommendationOutput
	for i := range inventory {
		cluster := &inventory[i]
		if !cluster.Kind.IsManagedCluster() {
			continue
		}
		rec, ok, err := r.evaluateCluster(ctx, rctx, cluster, members[cluster.ExternalID], dismissed, preferred)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r CrossProviderClusterRule) evaluateCluster(
	ctx context.Context,
	rctx RuleContext,
	cluster *models.Resource,
	members []*models.Resource,
	dismissed, preferred []string,
) (models.RecommendationOutput, bool, error) {
	currentTotal := cluster.MonthlyCost
	for _, m := range members {
		currentTotal += m.MonthlyCost
	}
	if currentTotal <= 0 {
		return models.RecommendationOutput{}, false, nil
	}

	nodeSpec, nodeCount := clusterNodeShape(cluster, members)

	req := normalize.SKU{
		Vendor:        cluster.Vendor,
		Region:        cluster.Region,
		VCPU:          nodeSpec.VCPU,
		MemoryGB:      nodeSpec.MemoryGB,
		StorageGB:     nodeSpec.StorageGB,
		StorageType:   nodeSpec.StorageType,
		CPUBaseline:   nodeSpec.CPUBaseline,
		BandwidthMbps: nodeSpec.BandwidthMbps,
	}

	entries, err := rctx.Catalog.Query(ctx, models.CatalogFilter{
		ExcludeVendors: append(dismissed, cluster.Vendor),
		Kind:           cluster.Kind,
		VCPU:           req.VCPU,
		MinMemoryGB:    req.MemoryGB * 0.8,
	})
	if err != nil {
		return models.RecommendationOutput{}, false, fmt.Errorf("cluster catalog query: %w", err)
	}

	// The per-node budget that still clears the minimum saving overall.
	maxNodeCost := (currentTotal - rctx.Thresholds.MinSavings()) / float64(nodeCount)
	best, ok := bestOffer(req, entries, preferred, rctx.Thresholds.Candidates(), maxNodeCost)
	if !ok {
		return models.RecommendationOutput{}, false, nil
	}

	candidateTotal := best.Entry.MonthlyCost * float64(nodeCount)
	savings := currentTotal - candidateTotal
	if savings < rctx.Thresholds.MinSavings() {
		return models.RecommendationOutput{}, false, nil
	}

	return models.RecommendationOutput{
		Type:  models.TypeCrossProviderCluster,
		Title: fmt.Sprintf("Migrate %s to %s", cluster.Name, best.Entry.Vendor),
		Description: fmt.Sprintf(
			"%d-node %s costs %.0f/month in total; %s offers a matching node SKU at %.0f/month per node (%.0f total).",
			nodeCount, cluster.Kind, currentTotal, best.Entry.Vendor, best.Entry.MonthlyCost, candidateTotal),
		Category:                models.CategoryCost,
		Severity:                severityForSavings(savings, currentTotal),
		EstimatedMonthlySavings: savings,
		Currency:                cluster.Currency,
		Confidence:              normalize.ConfidenceFor(req, best.Score),
		Metrics: map[string]any{
			"match_score":            best.Score,
			"node_count":             nodeCount,
			"member_resources":       len(members),
			"current_monthly_total":  currentTotal,
			"target_monthly_total":   candidateTotal,
			"target_node_cost":       best.Entry.MonthlyCost,
		},
		Insights: map[string]any{
			"cluster_kind": string(cluster.Kind),
			"geo_match":    normalize.SameGeo(best.Entry.Region, cluster.Region),
		},
		TargetVendor: best.Entry.Vendor,
		TargetSKU:    best.Entry.SKU,
		TargetRegion: best.Entry.Region,
		ResourceID:   cluster.ID,
		ProviderID:   cluster.ProviderID,
	}, true, nil
}

// membersByCluster indexes non-cluster resources by their cluster tag.
func membersByCluster(inventory []models.Resource) map[string][]*models.Resource {
	members := make(map[string][]*models.Resource)
	for i := range inventory {
		res := &inventory[i]
		if res.Kind.IsManagedCluster() {
			continue
		}
		if id, ok := res.ClusterID(); ok {
			members[id] = append(members[id], res)
		}
	}
	return members
}

// clusterNodeShape returns the per-node spec and billed node count for a
// cluster. Managed database clusters carry both on the cluster resource;
// Kubernetes clusters may instead derive them from their member servers.
func clusterNodeShape(cluster *models.Resource, members []*models.Resource) (models.ResourceSpec, int) {
	spec := cluster.Spec
	count := spec.NodeCount

	if spec.VCPU == 0 || count == 0 {
		servers := 0
		for _, m := range members {
			if m.Kind != models.KindServer {
				continue
			}
			servers++
			if spec.VCPU == 0 {
				spec = m.Spec
			}
		}
		if count == 0 {
			count = servers
		}
	}
	if count < 1 {
		count = 1
	}
	return spec, count
}
