package models

import (
	"time"

	"github.com/google/uuid"
)

// Run warnings returned instead of errors for configuration-level outcomes.
const (
	WarningNoProvidersInSync = "no_providers_in_sync"
)

// RunSummary is the result of one advisor run over a completed sync.
type RunSummary struct {
	SyncID      uuid.UUID `json:"sync_id"`
	GeneratedAt time.Time `json:"generated_at"`

	// Warning is set for non-fatal configuration outcomes such as
	// WarningNoProvidersInSync; the run performs no writes in that case.
	Warning string `json:"warning,omitempty"`

	ProvidersSynced        int `json:"providers_synced"`
	ResourcesProcessed     int `json:"resources_processed"`
	RulesRun               int `json:"rules_run"`
	RecommendationsCreated int `json:"recommendations_created"`
	RecommendationsUpdated int `json:"recommendations_updated"`
	SkippedRulesDisabled   int `json:"skipped_rules_disabled"`
	SuppressedDismissed    int `json:"suppressed_dismissed"`
	SuppressedImplemented  int `json:"suppressed_implemented"`
	SuppressedSnoozed      int `json:"suppressed_snoozed"`
	AutoDismissed          int `json:"auto_dismissed"`
	RuleErrors             int `json:"rule_errors"`

	// RuleTimings accumulates wall-clock evaluation time per rule ID.
	RuleTimings map[string]time.Duration `json:"rule_timings,omitempty"`
}
