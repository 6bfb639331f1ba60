// Package rules defines the rule contract of the recommendation engine and
// the built-in rule implementations. Rules are stateless strategies: they
// hold no mutable state between resources and re-query any stored policy
// (dismissed vendors, preferences) per evaluation rather than caching it.
package rules

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/policy"
)

// CatalogSource answers price-catalog queries. Implementations must return
// entries ordered by monthly cost ascending.
type CatalogSource interface {
	Query(ctx context.Context, f models.CatalogFilter) ([]models.PriceCatalogEntry, error)
}

// SettingsSource exposes the user-level provider preferences rules consult
// during evaluation. Both lookups are re-executed per evaluation by design.
type SettingsSource interface {
	// DismissedVendors returns vendors the user has excluded as migration
	// targets.
	DismissedVendors(ctx context.Context, userID uuid.UUID) ([]string, error)

	// PreferredVendors returns vendors the user has connected and enabled;
	// cross-provider rules prefer these as targets when non-empty.
	PreferredVendors(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// RuleContext carries the per-run collaborators a rule may consult.
// It is the sole input to rule evaluation besides the resource(s) themselves.
type RuleContext struct {
	UserID uuid.UUID
	SyncID uuid.UUID

	Catalog  CatalogSource
	Settings SettingsSource

	// Thresholds holds tunable parameters. May be nil; rules must use the
	// nil-safe getters.
	Thresholds *policy.Thresholds

	// Logger is never nil during orchestrated runs.
	Logger *zap.Logger
}

// Rule is a resource-scoped recommendation rule, evaluated once per resource.
// Implementations must be stateless and deterministic with respect to their
// inputs.
type Rule interface {
	// ID returns the unique, stable identifier (e.g. "rightsize_cpu").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Category classifies the recommendations this rule produces.
	Category() models.Category

	// Kinds returns the resource kinds this rule applies to.
	Kinds() []models.ResourceKind

	// Vendors returns an optional vendor allow-list. Nil or empty means the
	// rule applies to every vendor.
	Vendors() []string

	// Evaluate inspects one resource and returns zero or more candidate
	// recommendations. An empty slice means no issue was detected.
	Evaluate(ctx context.Context, rctx RuleContext, res *models.Resource) ([]models.RecommendationOutput, error)
}

// GlobalRule is evaluated once per run against the full inventory, for
// findings that only make sense as aggregates (e.g. cluster-level
// comparisons).
type GlobalRule interface {
	ID() string
	Name() string
	Category() models.Category

	EvaluateGlobal(ctx context.Context, rctx RuleContext, inventory []models.Resource) ([]models.RecommendationOutput, error)
}

// Applies is the default applicability predicate: the resource kind must be
// in the rule's declared set and the vendor must be allowed (absent
// allow-list = every vendor).
func Applies(r Rule, res *models.Resource) bool {
	kindOK := false
	for _, k := range r.Kinds() {
		if k == res.Kind {
			kindOK = true
			break
		}
	}
	if !kindOK {
		return false
	}
	vendors := r.Vendors()
	if len(vendors) == 0 {
		return true
	}
	for _, v := range vendors {
		if v == res.Vendor {
			return true
		}
	}
	return false
}

// containsVendor reports whether vendor appears in the list.
func containsVendor(vendor string, list []string) bool {
	for _, v := range list {
		if v == vendor {
			return true
		}
	}
	return false
}
