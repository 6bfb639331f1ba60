// Package normalize converts provider-specific resource configurations and
// price-catalog rows into one canonical, comparable shape and scores how
// closely two shapes match. It is pure computation: no I/O, no state.
package normalize

import (
	"strings"

	"github.com/costwise/costwise/internal/models"
)

// SKU is the canonical projection of either a Resource or a
// PriceCatalogEntry. It is derived per evaluation and never persisted.
// Zero values mean "unknown" for every spec field.
type SKU struct {
	Vendor        string
	Region        string
	VCPU          int
	MemoryGB      float64
	StorageGB     float64
	StorageType   models.StorageType
	CPUBaseline   models.CPUBaseline
	BandwidthMbps float64
	MonthlyCost   float64
}

// FromResource projects a resource's typed spec into canonical form.
// For managed cluster kinds the result describes one node; callers multiply
// by Spec.NodeCount when aggregating cluster cost.
func FromResource(r *models.Resource) SKU {
	return SKU{
		Vendor:        r.Vendor,
		Region:        r.Region,
		VCPU:          r.Spec.VCPU,
		MemoryGB:      r.Spec.MemoryGB,
		StorageGB:     r.Spec.StorageGB,
		StorageType:   r.Spec.StorageType,
		CPUBaseline:   r.Spec.CPUBaseline,
		BandwidthMbps: r.Spec.BandwidthMbps,
		MonthlyCost:   r.MonthlyCost,
	}
}

// FromEntry projects a price-catalog row into canonical form.
func FromEntry(e models.PriceCatalogEntry) SKU {
	return SKU{
		Vendor:        e.Vendor,
		Region:        e.Region,
		VCPU:          e.VCPU,
		MemoryGB:      e.MemoryGB,
		StorageGB:     e.StorageGB,
		StorageType:   e.StorageType,
		CPUBaseline:   e.CPUBaseline,
		BandwidthMbps: e.BandwidthMbps,
		MonthlyCost:   e.MonthlyCost,
	}
}

// SpecKnown reports whether the compute shape is fully specified.
// Candidates for an unknown shape are low-confidence by definition.
func (s SKU) SpecKnown() bool {
	return s.VCPU > 0 && s.MemoryGB > 0
}

// RegionCountry returns the geographic prefix of a region identifier:
// the lowercase segment before the first '-' ("us-east-1" → "us",
// "ru-3" → "ru"). An empty region yields an empty prefix.
func RegionCountry(region string) string {
	region = strings.ToLower(strings.TrimSpace(region))
	if i := strings.IndexByte(region, '-'); i >= 0 {
		return region[:i]
	}
	return region
}

// SameGeo reports whether two regions are identical or share a country
// prefix. Either side being empty never matches.
func SameGeo(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.EqualFold(a, b) {
		return true
	}
	return RegionCountry(a) == RegionCountry(b)
}
