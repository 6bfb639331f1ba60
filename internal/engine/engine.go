// Package engine contains the orchestrator that turns a completed inventory
// sync into a reconciled set of recommendations. It coordinates rule
// evaluation and persistence; it never talks to cloud SDKs or generates text
// itself.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/policy"
	"github.com/costwise/costwise/internal/rules"
	"github.com/costwise/costwise/internal/store"
)

// ErrCommitFailed tags a run whose final commit did not go through. No
// partial writes survive; the run is safe to retry as-is.
var ErrCommitFailed = errors.New("db_commit_failed")

// Advisor is the run-level entry point invoked by the sync pipeline after a
// sync completes.
type Advisor interface {
	RunForSync(ctx context.Context, syncID uuid.UUID) (*models.RunSummary, error)
}

// Describer produces user-facing short/long texts for a recommendation.
// Calls are best-effort: a failure never affects the recommendation itself.
type Describer interface {
	Describe(ctx context.Context, rec *models.Recommendation) (short, long string, err error)
}

// Options configures an Orchestrator. Every field is optional.
type Options struct {
	// Catalog overrides the store as the price-catalog source, typically with
	// a caching decorator. Nil means query the store directly.
	Catalog rules.CatalogSource

	// Thresholds tunes the engine. Nil means compiled defaults.
	Thresholds *policy.Thresholds

	// DisabledRules is the process-level disabled-rule set. It takes priority
	// over any stored setting.
	DisabledRules []string

	// Describer generates recommendation texts after commit. Nil disables
	// generation.
	Describer Describer

	Logger *zap.Logger

	// Clock is the time source, overridable in tests.
	Clock func() time.Time
}

// Orchestrator is the production Advisor. One instance serves many runs;
// runs for the same user are expected to be serialized by the caller.
type Orchestrator struct {
	store      store.Store
	registry   *rules.Registry
	catalog    rules.CatalogSource
	thresholds *policy.Thresholds
	disabled   []string
	describer  Describer
	logger     *zap.Logger
	clock      func() time.Time
}

// NewOrchestrator wires an Orchestrator to its store and rule registry.
func NewOrchestrator(st store.Store, registry *rules.Registry, opts Options) *Orchestrator {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = st
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		store:      st,
		registry:   registry,
		catalog:    catalog,
		thresholds: opts.Thresholds,
		disabled:   opts.DisabledRules,
		describer:  opts.Describer,
		logger:     logger,
		clock:      clock,
	}
}
