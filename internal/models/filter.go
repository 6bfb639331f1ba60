package models

// CatalogFilter narrows a price-catalog query. Zero fields are ignored.
// Results are always ordered by monthly cost ascending.
type CatalogFilter struct {
	// Vendor restricts to a single vendor; ExcludeVendors removes vendors
	// from the result. The two are mutually exclusive in practice.
	Vendor         string
	ExcludeVendors []string

	Kind ResourceKind

	// RegionPrefix keeps entries whose region starts with the prefix
	// (country-level matching, e.g. "eu").
	RegionPrefix string

	// VCPU, when positive, requires an exact vCPU count.
	VCPU int
	// MaxVCPU, when positive, requires a strictly smaller vCPU count than
	// MaxVCPU (used by rightsizing to look one or more steps down).
	MaxVCPU int

	MinMemoryGB float64
	MaxMemoryGB float64

	StorageType  StorageType
	MinStorageGB float64

	// MaxMonthlyCost, when positive, keeps only entries strictly cheaper.
	MaxMonthlyCost float64

	Limit int
}
