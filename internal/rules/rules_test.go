package rules

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/models"
)

// fakeCatalog implements CatalogSource in-memory, mirroring the store's
// filter semantics: zero filter fields are ignored, MaxVCPU and
// MaxMonthlyCost are strict upper bounds, results are ordered by monthly
// cost ascending.
type fakeCatalog struct {
	entries []models.PriceCatalogEntry
	err     error
	queries []models.CatalogFilter
}

func (f *fakeCatalog) Query(_ context.Context, filter models.CatalogFilter) ([]models.PriceCatalogEntry, error) {
	f.queries = append(f.queries, filter)
	if f.err != nil {
		return nil, f.err
	}

	var out []models.PriceCatalogEntry
	for _, e := range f.entries {
		switch {
		case filter.Vendor != "" && e.Vendor != filter.Vendor,
			containsVendor(e.Vendor, filter.ExcludeVendors),
			filter.Kind != "" && e.Kind != filter.Kind,
			filter.RegionPrefix != "" && !strings.HasPrefix(e.Region, filter.RegionPrefix),
			filter.VCPU > 0 && e.VCPU != filter.VCPU,
			filter.MaxVCPU > 0 && e.VCPU >= filter.MaxVCPU,
			filter.MinMemoryGB > 0 && e.MemoryGB < filter.MinMemoryGB,
			filter.MaxMemoryGB > 0 && e.MemoryGB > filter.MaxMemoryGB,
			filter.StorageType != "" && e.StorageType != filter.StorageType,
			filter.MinStorageGB > 0 && e.StorageGB < filter.MinStorageGB,
			filter.MaxMonthlyCost > 0 && e.MonthlyCost >= filter.MaxMonthlyCost:
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MonthlyCost < out[j].MonthlyCost })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type fakeSettings struct {
	dismissed []string
	preferred []string
	err       error
}

func (f *fakeSettings) DismissedVendors(context.Context, uuid.UUID) ([]string, error) {
	return f.dismissed, f.err
}

func (f *fakeSettings) PreferredVendors(context.Context, uuid.UUID) ([]string, error) {
	return f.preferred, f.err
}

func testRuleContext(cat CatalogSource, set SettingsSource) RuleContext {
	if set == nil {
		set = &fakeSettings{}
	}
	return RuleContext{
		UserID:   uuid.New(),
		SyncID:   uuid.New(),
		Catalog:  cat,
		Settings: set,
		Logger:   zap.NewNop(),
	}
}

func serverResource(vcpu int, memGB, monthlyCost float64) models.Resource {
	return models.Resource{
		ID:          uuid.New(),
		ProviderID:  uuid.New(),
		Vendor:      "alpha",
		ExternalID:  "srv-1",
		Name:        "api-1",
		Kind:        models.KindServer,
		Region:      "ru-1",
		Status:      models.StatusActive,
		Tags:        map[string]string{},
		Spec:        models.ResourceSpec{VCPU: vcpu, MemoryGB: memGB},
		MonthlyCost: monthlyCost,
		Currency:    "USD",
	}
}
