package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResourceKind identifies the kind of billed cloud item a resource is.
// Rules match on this enum; no rule parses provider-specific type strings.
type ResourceKind string

const (
	KindServer            ResourceKind = "server"
	KindVolume            ResourceKind = "volume"
	KindSnapshot          ResourceKind = "snapshot"
	KindReservedIP        ResourceKind = "reserved_ip"
	KindLoadBalancer      ResourceKind = "load_balancer"
	KindPostgresCluster   ResourceKind = "postgres_cluster"
	KindMySQLCluster      ResourceKind = "mysql_cluster"
	KindKafkaCluster      ResourceKind = "kafka_cluster"
	KindRedisCluster      ResourceKind = "redis_cluster"
	KindKubernetesCluster ResourceKind = "kubernetes_cluster"
)

// ManagedClusterKinds lists the kinds that represent multi-node managed
// services and participate in cluster-level cross-provider comparison.
var ManagedClusterKinds = []ResourceKind{
	KindPostgresCluster,
	KindMySQLCluster,
	KindKafkaCluster,
	KindRedisCluster,
	KindKubernetesCluster,
}

// IsManagedCluster reports whether k is a multi-node managed service kind.
func (k ResourceKind) IsManagedCluster() bool {
	for _, mk := range ManagedClusterKinds {
		if k == mk {
			return true
		}
	}
	return false
}

// ResourceStatus is the provider-reported lifecycle state, mapped to a small
// canonical set during sync.
type ResourceStatus string

const (
	StatusActive      ResourceStatus = "ACTIVE"
	StatusStopped     ResourceStatus = "STOPPED"
	StatusDeallocated ResourceStatus = "DEALLOCATED"
	StatusTerminated  ResourceStatus = "TERMINATED"
	StatusUnattached  ResourceStatus = "UNATTACHED"
	StatusUnknown     ResourceStatus = "UNKNOWN"
)

// StorageType is the canonical storage class used for SKU comparison.
type StorageType string

const (
	StorageSSD StorageType = "ssd"
	StorageHDD StorageType = "hdd"
	// StorageUnknown means the provider config did not expose a storage class.
	StorageUnknown StorageType = ""
)

// CPUBaseline distinguishes sustained-performance tiers from burstable ones.
type CPUBaseline string

const (
	BaselineStandard  CPUBaseline = "standard"
	BaselineBurstable CPUBaseline = "burstable"
	BaselineUnknown   CPUBaseline = ""
)

// Well-known tag keys populated by provider sync. Values are plain strings;
// use the Resource helpers below instead of reading tags directly.
const (
	// TagCPUUtilization holds the recent average CPU utilisation as a
	// percentage, e.g. "4" or "4%".
	TagCPUUtilization = "metrics/cpu-utilization"

	// TagClusterID links member resources (workers, volumes, load balancers)
	// to the managed cluster they belong to.
	TagClusterID = "cluster/id"

	// TagKubernetesCluster marks a server as a node of a Kubernetes cluster.
	// Such servers are costed at cluster level, never individually rightsized.
	TagKubernetesCluster = "kubernetes/cluster"
)

// ResourceSpec is the typed projection of the raw provider configuration.
// Zero values mean "unknown" for every field.
type ResourceSpec struct {
	VCPU          int         `json:"vcpu"`
	MemoryGB      float64     `json:"memory_gb"`
	StorageGB     float64     `json:"storage_gb"`
	StorageType   StorageType `json:"storage_type,omitempty"`
	CPUBaseline   CPUBaseline `json:"cpu_baseline,omitempty"`
	BandwidthMbps float64     `json:"bandwidth_mbps,omitempty"`
	// NodeCount is the number of billed hosts for managed cluster kinds.
	// Always at least 1 for cluster kinds after sync; 0 for plain resources.
	NodeCount int `json:"node_count,omitempty"`
}

// Resource is one billed cloud item owned by a provider connection.
// It is read-only to the rule engine.
type Resource struct {
	ID         uuid.UUID      `json:"id"`
	ProviderID uuid.UUID      `json:"provider_id"`
	Vendor     string         `json:"vendor"`
	ExternalID string         `json:"external_id"`
	Name       string         `json:"name"`
	Kind       ResourceKind   `json:"kind"`
	Region     string         `json:"region"`
	Status     ResourceStatus `json:"status"`
	Tags       map[string]string `json:"tags,omitempty"`
	Spec       ResourceSpec      `json:"spec"`
	// RawConfig keeps the untyped provider payload for insight rendering.
	// Rules must read Spec and Tags, never RawConfig.
	RawConfig   map[string]any `json:"raw_config,omitempty"`
	DailyCost   float64        `json:"daily_cost"`
	MonthlyCost float64        `json:"monthly_cost"`
	Currency    string         `json:"currency"`
	// CreatedAt is the provider-side creation time. Zero means unknown.
	CreatedAt time.Time `json:"created_at"`
}

// CPUUtilization returns the average CPU utilisation percentage from the
// metrics tag. ok is false when the tag is absent or not a number.
func (r *Resource) CPUUtilization() (float64, bool) {
	raw, exists := r.Tags[TagCPUUtilization]
	if !exists {
		return 0, false
	}
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ClusterID returns the managed-cluster membership tag, if any.
func (r *Resource) ClusterID() (string, bool) {
	id, ok := r.Tags[TagClusterID]
	return id, ok && id != ""
}

// IsClusterMember reports whether the resource is billed as part of a larger
// aggregate (a managed cluster or a Kubernetes node pool) and must therefore
// be skipped by per-resource sizing rules.
func (r *Resource) IsClusterMember() bool {
	if _, ok := r.ClusterID(); ok {
		return true
	}
	_, ok := r.Tags[TagKubernetesCluster]
	return ok
}

// Stopped reports whether the resource is in a halted state where only
// storage keeps accruing charges.
func (r *Resource) Stopped() bool {
	switch r.Status {
	case StatusStopped, StatusDeallocated, StatusTerminated:
		return true
	}
	return false
}

// AgeDays returns the resource age in whole days relative to now, and false
// when the creation time is unknown.
func (r *Resource) AgeDays(now time.Time) (int, bool) {
	if r.CreatedAt.IsZero() {
		return 0, false
	}
	return int(now.Sub(r.CreatedAt).Hours() / 24), true
}

// Provider is a user-owned connection to one cloud vendor account.
type Provider struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Vendor string    `json:"vendor"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
}

// SyncStatus values for inventory syncs.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// Sync is one inventory refresh run. The advisor only operates on syncs in
// the completed state.
type Sync struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
