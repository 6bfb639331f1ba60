package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity represents the impact level of a recommendation.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Category groups recommendations by the concern they address.
type Category string

const (
	CategoryCost        Category = "cost"
	CategorySecurity    Category = "security"
	CategoryReliability Category = "reliability"
	CategoryOperations  Category = "operations"
	CategoryCompliance  Category = "compliance"
)

// Recommendation type identifiers emitted by the built-in rules.
const (
	TypeRightsizeCPU         = "rightsizing_cpu"
	TypeCleanupStopped       = "cleanup_stopped_resource"
	TypeCleanupOldSnapshot   = "cleanup_old_snapshot"
	TypeCleanupUnusedIP      = "cleanup_unused_ip"
	TypeCrossProviderVM      = "cross_provider_vm"
	TypeCrossProviderCluster = "cross_provider_cluster"
)

// RecommendationOutput is the ephemeral value a rule evaluation produces.
// ResourceID and ProviderID may be left zero by the rule; the orchestrator
// backfills them from the resource being evaluated before reconciliation.
type RecommendationOutput struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`

	EstimatedMonthlySavings float64 `json:"estimated_monthly_savings"`
	OneTimeSavings          float64 `json:"one_time_savings,omitempty"`
	Currency                string  `json:"currency"`
	// Confidence is 0..1; low-confidence spec matches are capped at 0.4.
	Confidence float64 `json:"confidence"`

	Metrics  map[string]any `json:"metrics,omitempty"`
	Insights map[string]any `json:"insights,omitempty"`

	TargetVendor string `json:"target_vendor,omitempty"`
	TargetSKU    string `json:"target_sku,omitempty"`
	TargetRegion string `json:"target_region,omitempty"`

	ResourceID uuid.UUID `json:"resource_id,omitempty"`
	ProviderID uuid.UUID `json:"provider_id,omitempty"`
}

// RecommendationKey is the uniqueness key for persisted recommendations.
// When no target vendor is set the key degrades to (source, resource, type):
// target fields are blanked so that catalog-independent findings from the
// same rule never duplicate.
type RecommendationKey struct {
	Source       string
	ResourceID   uuid.UUID
	Type         string
	TargetVendor string
	TargetSKU    string
}

// Key derives the uniqueness key for an output produced by the given rule.
func (o RecommendationOutput) Key(source string) RecommendationKey {
	k := RecommendationKey{
		Source:     source,
		ResourceID: o.ResourceID,
		Type:       o.Type,
	}
	if o.TargetVendor != "" {
		k.TargetVendor = o.TargetVendor
		k.TargetSKU = o.TargetSKU
	}
	return k
}

// RecommendationStatus is the lifecycle state of a persisted recommendation.
type RecommendationStatus string

const (
	StatusPending       RecommendationStatus = "pending"
	StatusSeen          RecommendationStatus = "seen"
	StatusDismissed     RecommendationStatus = "dismissed"
	StatusSnoozed       RecommendationStatus = "snoozed"
	StatusImplemented   RecommendationStatus = "implemented"
	StatusAutoDismissed RecommendationStatus = "auto_dismissed"
)

// Recommendation is the durable, user-visible entity. At most one live row
// exists per RecommendationKey; re-evaluation updates or suppresses, never
// duplicates.
type Recommendation struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Source     string    `json:"source"`
	ResourceID uuid.UUID `json:"resource_id"`
	ProviderID uuid.UUID `json:"provider_id"`

	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`

	// AIShortDescription and AILongDescription are the user-facing HTML
	// texts produced best-effort by the text-generation collaborator.
	// Empty until generation succeeds; never required.
	AIShortDescription string `json:"ai_short_description,omitempty"`
	AILongDescription  string `json:"ai_long_description,omitempty"`

	EstimatedMonthlySavings float64 `json:"estimated_monthly_savings"`
	OneTimeSavings          float64 `json:"one_time_savings,omitempty"`
	Currency                string  `json:"currency"`
	Confidence              float64 `json:"confidence"`

	Metrics  map[string]any `json:"metrics,omitempty"`
	Insights map[string]any `json:"insights,omitempty"`

	TargetVendor string `json:"target_vendor,omitempty"`
	TargetSKU    string `json:"target_sku,omitempty"`
	TargetRegion string `json:"target_region,omitempty"`

	Status        RecommendationStatus `json:"status"`
	FirstSeenAt   time.Time            `json:"first_seen_at"`
	SeenAt        *time.Time           `json:"seen_at,omitempty"`
	DismissedAt   *time.Time           `json:"dismissed_at,omitempty"`
	DismissReason string               `json:"dismiss_reason,omitempty"`
	// SnoozedUntil is stored as text: legacy rows contain free-form values,
	// and an unparsable snooze must be treated as still active.
	SnoozedUntil          *string    `json:"snoozed_until,omitempty"`
	AppliedAt             *time.Time `json:"applied_at,omitempty"`
	LastVerifiedAt        time.Time  `json:"last_verified_at"`
	VerificationFailCount int        `json:"verification_fail_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the uniqueness key of the persisted row.
func (r *Recommendation) Key() RecommendationKey {
	k := RecommendationKey{
		Source:     r.Source,
		ResourceID: r.ResourceID,
		Type:       r.Type,
	}
	if r.TargetVendor != "" {
		k.TargetVendor = r.TargetVendor
		k.TargetSKU = r.TargetSKU
	}
	return k
}

// SnoozeActive reports whether the recommendation is under an active snooze
// at the given instant. A value that cannot be parsed as RFC 3339 counts as
// active: surfacing a recommendation the user asked to silence is worse than
// keeping a stale snooze.
func (r *Recommendation) SnoozeActive(now time.Time) bool {
	if r.Status != StatusSnoozed || r.SnoozedUntil == nil || *r.SnoozedUntil == "" {
		return false
	}
	until, err := time.Parse(time.RFC3339, *r.SnoozedUntil)
	if err != nil {
		return true
	}
	return until.After(now)
}
