package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/policy"
	"github.com/costwise/costwise/internal/rules"
)

// RunForSync implements Advisor. It resolves the inventory of a completed
// sync, evaluates every applicable rule, reconciles outputs against the
// persisted recommendation set inside a single transaction, and returns the
// run summary.
func (o *Orchestrator) RunForSync(ctx context.Context, syncID uuid.UUID) (*models.RunSummary, error) {
	now := o.clock()
	summary := &models.RunSummary{
		SyncID:      syncID,
		GeneratedAt: now,
		RuleTimings: make(map[string]time.Duration),
	}

	sync, err := o.store.GetSync(ctx, syncID)
	if err != nil {
		return nil, fmt.Errorf("resolve sync %s: %w", syncID, err)
	}
	if sync.Status != models.SyncStatusCompleted {
		return nil, fmt.Errorf("sync %s has status %q, want %q", syncID, sync.Status, models.SyncStatusCompleted)
	}

	providers, err := o.store.ProvidersForSync(ctx, syncID)
	if err != nil {
		return nil, fmt.Errorf("resolve providers for sync %s: %w", syncID, err)
	}
	if len(providers) == 0 {
		summary.Warning = models.WarningNoProvidersInSync
		o.logger.Warn("sync has no providers, skipping run", zap.String("sync_id", syncID.String()))
		return summary, nil
	}
	summary.ProvidersSynced = len(providers)

	providerIDs := make([]uuid.UUID, len(providers))
	for i, p := range providers {
		providerIDs[i] = p.ID
	}
	inventory, err := o.store.ResourcesForProviders(ctx, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("load inventory for sync %s: %w", syncID, err)
	}
	summary.ResourcesProcessed = len(inventory)

	settings, err := o.store.RuleSettings(ctx, sync.UserID)
	if err != nil {
		return nil, fmt.Errorf("load rule settings: %w", err)
	}
	disable := policy.NewDisablePolicy(o.disabled, settings)

	rctx := rules.RuleContext{
		UserID:     sync.UserID,
		SyncID:     syncID,
		Catalog:    o.catalog,
		Settings:   o.store,
		Thresholds: o.thresholds,
		Logger:     o.logger,
	}

	tx, err := o.store.BeginRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin run transaction: %w", err)
	}
	rec := &reconciler{
		tx:         tx,
		thresholds: o.thresholds,
		userID:     sync.UserID,
		now:        now,
		summary:    summary,
	}

	run := &runState{
		executed: make(map[string]struct{}),
		skipped:  make(map[string]struct{}),
	}

	if err := o.resourcePass(ctx, rctx, inventory, disable, rec, run, summary); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := o.globalPass(ctx, rctx, inventory, disable, rec, run, summary); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	summary.RulesRun = len(run.executed)

	o.generateDescriptions(ctx, rec.created)

	o.logger.Info("advisor run complete",
		zap.String("sync_id", syncID.String()),
		zap.Int("resources", summary.ResourcesProcessed),
		zap.Int("created", summary.RecommendationsCreated),
		zap.Int("updated", summary.RecommendationsUpdated),
		zap.Int("rule_errors", summary.RuleErrors))
	return summary, nil
}

// runState tracks which rules actually ran and which (rule, vendor) pairs
// were skipped, so the summary counts each once.
type runState struct {
	executed map[string]struct{}
	skipped  map[string]struct{}
}

func (s *runState) markSkipped(ruleID, vendor string, summary *models.RunSummary) {
	key := ruleID + "\x00" + vendor
	if _, seen := s.skipped[key]; seen {
		return
	}
	s.skipped[key] = struct{}{}
	summary.SkippedRulesDisabled++
}

// resourcePass evaluates every resource-scoped rule against every resource.
// Rule-local failures are counted and skipped; reconciliation failures abort.
func (o *Orchestrator) resourcePass(
	ctx context.Context,
	rctx rules.RuleContext,
	inventory []models.Resource,
	disable *policy.DisablePolicy,
	rec *reconciler,
	run *runState,
	summary *models.RunSummary,
) error {
	for i := range inventory {
		res := &inventory[i]
		for _, rule := range o.registry.ResourceRules() {
			if decision, off := disable.Disabled(rule.ID(), res.Vendor); off {
				run.markSkipped(rule.ID(), res.Vendor, summary)
				o.logger.Debug("rule disabled",
					zap.String("rule", rule.ID()),
					zap.String("vendor", res.Vendor),
					zap.String("decision", string(decision)))
				continue
			}
			if !rules.Applies(rule, res) {
				continue
			}

			outputs, err := o.evaluateResource(ctx, rctx, rule, res, summary)
			if err != nil {
				summary.RuleErrors++
				o.logger.Error("rule evaluation failed",
					zap.String("rule", rule.ID()),
					zap.String("resource", res.ExternalID),
					zap.Error(err))
				continue
			}
			run.executed[rule.ID()] = struct{}{}

			for _, out := range outputs {
				backfillFromResource(&out, res)
				if err := rec.reconcile(ctx, rule.ID(), out); err != nil {
					return fmt.Errorf("reconcile output of rule %s: %w", rule.ID(), err)
				}
			}
		}
	}
	return nil
}

// globalPass evaluates each global rule once against the full inventory.
func (o *Orchestrator) globalPass(
	ctx context.Context,
	rctx rules.RuleContext,
	inventory []models.Resource,
	disable *policy.DisablePolicy,
	rec *reconciler,
	run *runState,
	summary *models.RunSummary,
) error {
	for _, rule := range o.registry.GlobalRules() {
		if decision, off := disable.Disabled(rule.ID(), ""); off {
			run.markSkipped(rule.ID(), "", summary)
			o.logger.Debug("global rule disabled",
				zap.String("rule", rule.ID()),
				zap.String("decision", string(decision)))
			continue
		}

		outputs, err := o.evaluateGlobal(ctx, rctx, rule, inventory, summary)
		if err != nil {
			summary.RuleErrors++
			o.logger.Error("global rule evaluation failed",
				zap.String("rule", rule.ID()), zap.Error(err))
			continue
		}
		run.executed[rule.ID()] = struct{}{}

		for _, out := range outputs {
			anchorToInventory(&out, inventory)
			if err := rec.reconcile(ctx, rule.ID(), out); err != nil {
				return fmt.Errorf("reconcile output of global rule %s: %w", rule.ID(), err)
			}
		}
	}
	return nil
}

// evaluateResource runs one rule against one resource, recovering panics so
// a broken rule cannot take down the run, and accumulating per-rule timing.
func (o *Orchestrator) evaluateResource(
	ctx context.Context,
	rctx rules.RuleContext,
	rule rules.Rule,
	res *models.Resource,
	summary *models.RunSummary,
) (outputs []models.RecommendationOutput, err error) {
	start := time.Now()
	defer func() {
		summary.RuleTimings[rule.ID()] += time.Since(start)
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.ID(), r)
		}
	}()
	return rule.Evaluate(ctx, rctx, res)
}

func (o *Orchestrator) evaluateGlobal(
	ctx context.Context,
	rctx rules.RuleContext,
	rule rules.GlobalRule,
	inventory []models.Resource,
	summary *models.RunSummary,
) (outputs []models.RecommendationOutput, err error) {
	start := time.Now()
	defer func() {
		summary.RuleTimings[rule.ID()] += time.Since(start)
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.ID(), r)
		}
	}()
	return rule.EvaluateGlobal(ctx, rctx, inventory)
}

// backfillFromResource fills targeting fields a rule left empty from the
// resource being evaluated. Outputs always reach reconciliation fully
// targeted.
func backfillFromResource(out *models.RecommendationOutput, res *models.Resource) {
	if out.ResourceID == uuid.Nil {
		out.ResourceID = res.ID
	}
	if out.ProviderID == uuid.Nil {
		out.ProviderID = res.ProviderID
	}
	if out.Currency == "" {
		out.Currency = res.Currency
	}
}

// anchorToInventory does the same for global-rule outputs: an output that
// names a resource is anchored to that resource's provider, anything else to
// the first resource in inventory.
func anchorToInventory(out *models.RecommendationOutput, inventory []models.Resource) {
	if out.ResourceID != uuid.Nil && out.ProviderID == uuid.Nil {
		for i := range inventory {
			if inventory[i].ID == out.ResourceID {
				out.ProviderID = inventory[i].ProviderID
				if out.Currency == "" {
					out.Currency = inventory[i].Currency
				}
				break
			}
		}
	}
	if out.ResourceID == uuid.Nil && len(inventory) > 0 {
		out.ResourceID = inventory[0].ID
		out.ProviderID = inventory[0].ProviderID
		if out.Currency == "" {
			out.Currency = inventory[0].Currency
		}
	}
}

// generateDescriptions asks the text-generation collaborator for short/long
// texts on every newly created recommendation. Strictly best-effort: errors
// are logged and dropped.
func (o *Orchestrator) generateDescriptions(ctx context.Context, created []*models.Recommendation) {
	if o.describer == nil {
		return
	}
	for _, rec := range created {
		short, long, err := o.describer.Describe(ctx, rec)
		if err != nil {
			o.logger.Warn("description generation failed",
				zap.String("recommendation_id", rec.ID.String()), zap.Error(err))
			continue
		}
		if err := o.store.SetDescriptions(ctx, rec.ID, short, long); err != nil {
			o.logger.Warn("storing descriptions failed",
				zap.String("recommendation_id", rec.ID.String()), zap.Error(err))
		}
	}
}
