package models

import "github.com/google/uuid"

// PriceCatalogEntry is one provider's advertised configuration and price.
// Rows are immutable reference data refreshed out-of-band by the catalog
// import pipeline.
type PriceCatalogEntry struct {
	ID            uuid.UUID      `json:"id"`
	Vendor        string         `json:"vendor"`
	Region        string         `json:"region"`
	SKU           string         `json:"sku"`
	Kind          ResourceKind   `json:"kind"`
	VCPU          int            `json:"vcpu"`
	MemoryGB      float64        `json:"memory_gb"`
	StorageGB     float64        `json:"storage_gb"`
	StorageType   StorageType    `json:"storage_type,omitempty"`
	CPUBaseline   CPUBaseline    `json:"cpu_baseline,omitempty"`
	BandwidthMbps float64        `json:"bandwidth_mbps,omitempty"`
	MonthlyCost   float64        `json:"monthly_cost"`
	Currency      string         `json:"currency"`
	Extra         map[string]any `json:"extra,omitempty"`
}
