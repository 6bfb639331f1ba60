package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/policy"
	"github.com/costwise/costwise/internal/store"
)

const autoDismissReason = "not acted on after being seen"

// reconciler merges freshly computed outputs into the persisted
// recommendation set inside one run transaction. All counter updates happen
// here so the orchestrator loop stays free of lifecycle logic.
type reconciler struct {
	tx         store.RunTx
	thresholds *policy.Thresholds
	userID     uuid.UUID
	now        time.Time
	summary    *models.RunSummary

	// created collects rows inserted this run, for post-commit description
	// generation.
	created []*models.Recommendation
}

// reconcile applies the dedup/suppression state machine to one output.
// source is the ID of the rule that produced it. Targeting fields must
// already be backfilled. Any returned error aborts the whole run.
func (r *reconciler) reconcile(ctx context.Context, source string, out models.RecommendationOutput) error {
	existing, err := r.tx.GetByKey(ctx, r.userID, out.Key(source))
	if errors.Is(err, store.ErrNotFound) {
		return r.insert(ctx, source, out)
	}
	if err != nil {
		return fmt.Errorf("look up recommendation by key: %w", err)
	}
	return r.apply(ctx, existing, out)
}

func (r *reconciler) apply(ctx context.Context, existing *models.Recommendation, out models.RecommendationOutput) error {
	switch {
	case r.staleSeen(existing):
		if err := r.tx.AutoDismiss(ctx, existing.ID, autoDismissReason, r.now); err != nil {
			return fmt.Errorf("auto dismiss recommendation %s: %w", existing.ID, err)
		}
		r.summary.AutoDismissed++
		return nil

	case r.suppressedDismissed(existing, out):
		r.summary.SuppressedDismissed++
		return nil

	case r.suppressedImplemented(existing, out):
		r.summary.SuppressedImplemented++
		return nil

	case existing.SnoozeActive(r.now):
		r.summary.SuppressedSnoozed++
		return nil
	}
	return r.update(ctx, existing, out)
}

// staleSeen reports whether the row has sat unattended in "seen" for the
// full auto-dismiss window.
func (r *reconciler) staleSeen(existing *models.Recommendation) bool {
	if existing.Status != models.StatusSeen || existing.SeenAt == nil {
		return false
	}
	window := daysDuration(r.thresholds.AutoDismissAfterDays())
	return !r.now.Before(existing.SeenAt.Add(window))
}

// suppressedDismissed reports whether a dismissed row is still inside its
// suppression window and the new savings do not clear the re-surface factor.
func (r *reconciler) suppressedDismissed(existing *models.Recommendation, out models.RecommendationOutput) bool {
	if existing.Status != models.StatusDismissed || existing.DismissedAt == nil {
		return false
	}
	window := daysDuration(r.thresholds.DismissWindowDays())
	if !existing.DismissedAt.Add(window).After(r.now) {
		return false
	}
	return out.EstimatedMonthlySavings <= existing.EstimatedMonthlySavings*r.thresholds.DismissFactor()
}

func (r *reconciler) suppressedImplemented(existing *models.Recommendation, out models.RecommendationOutput) bool {
	if existing.Status != models.StatusImplemented || existing.AppliedAt == nil {
		return false
	}
	window := daysDuration(r.thresholds.ImplementWindowDays())
	if !existing.AppliedAt.Add(window).After(r.now) {
		return false
	}
	return out.EstimatedMonthlySavings <= existing.EstimatedMonthlySavings*r.thresholds.ImplementFactor()
}

func (r *reconciler) insert(ctx context.Context, source string, out models.RecommendationOutput) error {
	rec := &models.Recommendation{
		ID:         uuid.New(),
		UserID:     r.userID,
		Source:     source,
		ResourceID: out.ResourceID,
		ProviderID: out.ProviderID,

		Type:        out.Type,
		Title:       out.Title,
		Description: out.Description,
		Category:    out.Category,
		Severity:    out.Severity,

		EstimatedMonthlySavings: out.EstimatedMonthlySavings,
		OneTimeSavings:          out.OneTimeSavings,
		Currency:                currencyOrDefault(out.Currency),
		Confidence:              out.Confidence,

		Metrics:  out.Metrics,
		Insights: out.Insights,

		TargetVendor: out.TargetVendor,
		TargetSKU:    out.TargetSKU,
		TargetRegion: out.TargetRegion,

		Status:         models.StatusPending,
		FirstSeenAt:    r.now,
		LastVerifiedAt: r.now,
		CreatedAt:      r.now,
		UpdatedAt:      r.now,
	}

	err := r.tx.Insert(ctx, rec)
	if errors.Is(err, store.ErrDuplicateKey) {
		// A concurrent run won the insert race. Re-read and fall through to
		// the existing-row path.
		existing, getErr := r.tx.GetByKey(ctx, r.userID, out.Key(source))
		if getErr != nil {
			return fmt.Errorf("re-read recommendation after duplicate key: %w", getErr)
		}
		return r.apply(ctx, existing, out)
	}
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}

	r.summary.RecommendationsCreated++
	r.created = append(r.created, rec)
	return nil
}

func (r *reconciler) update(ctx context.Context, existing *models.Recommendation, out models.RecommendationOutput) error {
	existing.Title = out.Title
	existing.Description = out.Description
	existing.Category = out.Category
	existing.Severity = out.Severity
	existing.EstimatedMonthlySavings = out.EstimatedMonthlySavings
	existing.OneTimeSavings = out.OneTimeSavings
	existing.Currency = currencyOrDefault(out.Currency)
	existing.Confidence = out.Confidence
	existing.Metrics = out.Metrics
	existing.Insights = out.Insights
	existing.TargetVendor = out.TargetVendor
	existing.TargetSKU = out.TargetSKU
	if out.TargetRegion != "" {
		existing.TargetRegion = out.TargetRegion
	}

	// An expired snooze means the user's silence request has run out; the
	// finding returns to the pending queue. Every other status survives the
	// update untouched.
	if existing.Status == models.StatusSnoozed {
		existing.Status = models.StatusPending
	}

	existing.LastVerifiedAt = r.now
	existing.VerificationFailCount = 0

	if err := r.tx.Update(ctx, existing); err != nil {
		return fmt.Errorf("update recommendation %s: %w", existing.ID, err)
	}
	r.summary.RecommendationsUpdated++
	return nil
}

func daysDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "USD"
	}
	return currency
}
