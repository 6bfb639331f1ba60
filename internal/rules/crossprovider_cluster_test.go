package rules

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/costwise/costwise/internal/models"
)

func pgCluster(nodes int, monthlyCost float64) models.Resource {
	return models.Resource{
		ID:         uuid.New(),
		ProviderID: uuid.New(),
		Vendor:     "alpha",
		ExternalID: "pg-main",
		Name:       "pg-main",
		Kind:       models.KindPostgresCluster,
		Region:     "ru-1",
		Status:     models.StatusActive,
		Spec: models.ResourceSpec{
			VCPU:      2,
			MemoryGB:  8,
			StorageGB: 100,
			NodeCount: nodes,
		},
		MonthlyCost: monthlyCost,
		Currency:    "USD",
	}
}

func clusterEntry(vendor, region string, nodeCost float64) models.PriceCatalogEntry {
	return models.PriceCatalogEntry{
		Vendor:      vendor,
		Region:      region,
		SKU:         "pg-2-8",
		Kind:        models.KindPostgresCluster,
		VCPU:        2,
		MemoryGB:    8,
		StorageGB:   100,
		MonthlyCost: nodeCost,
	}
}

func TestCrossProviderClusterRule_CheaperManagedCluster(t *testing.T) {
	inventory := []models.Resource{pgCluster(3, 30000)}
	catalog := &fakeCatalog{entries: []models.PriceCatalogEntry{
		clusterEntry("beta", "ru-2", 8000),
	}}

	got, err := CrossProviderClusterRule{}.EvaluateGlobal(context.Background(), testRuleContext(catalog, nil), inventory)
	if err != nil {
		t.Fatalf("EvaluateGlobal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 recommendation, got %d", len(got))
	}

	rec := got[0]
	if rec.Type != models.TypeCrossProviderCluster {
		t.Errorf("Type = %q; want %q", rec.Type, models.TypeCrossProviderCluster)
	}
	if rec.TargetVendor != "beta" {
		t.Errorf("TargetVendor = %q; want beta", rec.TargetVendor)
	}
	// 30000 current versus 3 nodes at 8000 each.
	if rec.EstimatedMonthlySavings != 6000 {
		t.Errorf("savings = %v; want 6000", rec.EstimatedMonthlySavings)
	}
	if rec.ResourceID != inventory[0].ID {
		t.Error("finding must point at the cluster resource")
	}
}

func TestCrossProviderClusterRule_AggregatesMemberCosts(t *testing.T) {
	cluster := pgCluster(2, 10000)
	lb := models.Resource{
		ID:          uuid.New(),
		ProviderID:  cluster.ProviderID,
		Vendor:      "alpha",
		ExternalID:  "lb-1",
		Kind:        models.KindLoadBalancer,
		Region:      "ru-1",
		Status:      models.StatusActive,
		MonthlyCost: 5000,
		Currency:    "USD",
		Tags:        map[string]string{models.TagClusterID: cluster.ExternalID},
	}
	vol := models.Resource{
		ID:          uuid.New(),
		ProviderID:  cluster.ProviderID,
		Vendor:      "alpha",
		ExternalID:  "vol-1",
		Kind:        models.KindVolume,
		Region:      "ru-1",
		Status:      models.StatusActive,
		MonthlyCost: 5000,
		Currency:    "USD",
		Tags:        map[string]string{models.TagClusterID: cluster.ExternalID},
	}

	catalog := &fakeCatalog{entries: []models.PriceCatalogEntry{
		clusterEntry("beta", "ru-2", 8000),
	}}

	got, err := CrossProviderClusterRule{}.EvaluateGlobal(
		context.Background(), testRuleContext(catalog, nil),
		[]models.Resource{cluster, lb, vol})
	if err != nil {
		t.Fatalf("EvaluateGlobal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 recommendation, got %d", len(got))
	}
	// Current total 20000 across cluster and members; 2 nodes at 8000.
	if got[0].EstimatedMonthlySavings != 4000 {
		t.Errorf("savings = %v; want 4000", got[0].EstimatedMonthlySavings)
	}
}

func TestCrossProviderClusterRule_BelowMinimumSaving(t *testing.T) {
	inventory := []models.Resource{pgCluster(3, 24005)}
	catalog := &fakeCatalog{entries: []models.PriceCatalogEntry{
		clusterEntry("beta", "ru-2", 8000),
	}}

	got, err := CrossProviderClusterRule{}.EvaluateGlobal(context.Background(), testRuleContext(catalog, nil), inventory)
	if err != nil {
		t.Fatalf("EvaluateGlobal: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no finding when the saving misses the minimum, got %+v", got)
	}
}

func TestCrossProviderClusterRule_DerivesKubernetesShapeFromNodes(t *testing.T) {
	cluster := models.Resource{
		ID:          uuid.New(),
		ProviderID:  uuid.New(),
		Vendor:      "alpha",
		ExternalID:  "k8s-1",
		Name:        "k8s-1",
		Kind:        models.KindKubernetesCluster,
		Region:      "ru-1",
		Status:      models.StatusActive,
		MonthlyCost: 1000,
		Currency:    "USD",
	}
	nodes := make([]models.Resource, 0, 3)
	for i := 0; i < 3; i++ {
		node := serverResource(4, 16, 3000)
		node.Spec.StorageGB = 100
		node.Tags[models.TagClusterID] = cluster.ExternalID
		nodes = append(nodes, node)
	}

	entry := clusterEntry("beta", "ru-2", 2000)
	entry.SKU = "k8s-4-16"
	entry.Kind = models.KindKubernetesCluster
	entry.VCPU = 4
	entry.MemoryGB = 16
	catalog := &fakeCatalog{entries: []models.PriceCatalogEntry{entry}}

	got, err := CrossProviderClusterRule{}.EvaluateGlobal(
		context.Background(), testRuleContext(catalog, nil),
		append([]models.Resource{cluster}, nodes...))
	if err != nil {
		t.Fatalf("EvaluateGlobal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 recommendation, got %d", len(got))
	}
	// Current total 10000 for control plane plus 3 nodes; 3 target nodes
	// at 2000 each.
	if got[0].EstimatedMonthlySavings != 4000 {
		t.Errorf("savings = %v; want 4000", got[0].EstimatedMonthlySavings)
	}
	if nc, _ := got[0].Metrics["node_count"].(int); nc != 3 {
		t.Errorf("node_count = %v; want 3", got[0].Metrics["node_count"])
	}
}

func TestCrossProviderClusterRule_IgnoresNonClusterInventory(t *testing.T) {
	server := serverResource(4, 16, 1000)
	server.Spec.StorageGB = 100
	catalog := &fakeCatalog{entries: []models.PriceCatalogEntry{
		clusterEntry("beta", "ru-2", 100),
	}}

	got, err := CrossProviderClusterRule{}.EvaluateGlobal(
		context.Background(), testRuleContext(catalog, nil),
		[]models.Resource{server})
	if err != nil {
		t.Fatalf("EvaluateGlobal: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("standalone servers are not clusters, got %+v", got)
	}
}

func TestCrossProviderClusterRule_DismissedVendorExcluded(t *testing.T) {
	inventory := []models.Resource{pgCluster(3, 30000)}
	catalog := &fakeCatalog{entries: []models.PriceCatalogEntry{
		clusterEntry("beta", "ru-2", 8000),
	}}
	settings := &fakeSettings{dismissed: []string{"beta"}}

	got, err := CrossProviderClusterRule{}.EvaluateGlobal(context.Background(), testRuleContext(catalog, settings), inventory)
	if err != nil {
		t.Fatalf("EvaluateGlobal: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want nothing when the only cheaper vendor is dismissed, got %+v", got)
	}
}
