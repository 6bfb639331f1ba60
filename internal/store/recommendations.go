package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/costwise/costwise/internal/models"
)

const recommendationColumns = `
	id, user_id, source, resource_id, provider_id, type, title, description,
	COALESCE(ai_short_description, ''), COALESCE(ai_long_description, ''),
	category, severity, estimated_monthly_savings, one_time_savings, currency,
	confidence, metrics, insights,
	COALESCE(target_vendor, ''), COALESCE(target_sku, ''), COALESCE(target_region, ''),
	status, first_seen_at, seen_at, dismissed_at, COALESCE(dismiss_reason, ''),
	snoozed_until, applied_at, last_verified_at, verification_fail_count,
	created_at, updated_at`

// BeginRun opens the transaction that scopes all recommendation writes of
// one advisor run.
func (s *PostgresStore) BeginRun(ctx context.Context) (RunTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin run transaction: %w", err)
	}
	return &pgRunTx{tx: tx}, nil
}

// Get reads one recommendation outside any run transaction.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+recommendationColumns+` FROM recommendations WHERE id = $1`, id)
	return scanRecommendation(row)
}

// SetDescriptions stores AI-generated texts for a committed row.
func (s *PostgresStore) SetDescriptions(ctx context.Context, id uuid.UUID, short, long string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE recommendations
		 SET ai_short_description = $2, ai_long_description = $3, updated_at = NOW()
		 WHERE id = $1`, id, short, long)
	if err != nil {
		return fmt.Errorf("set descriptions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// pgRunTx implements RunTx over a single pgx transaction.
type pgRunTx struct {
	tx pgx.Tx
}

func (t *pgRunTx) GetByKey(ctx context.Context, userID uuid.UUID, key models.RecommendationKey) (*models.Recommendation, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT`+recommendationColumns+`
		 FROM recommendations
		 WHERE user_id = $1 AND source = $2 AND resource_id = $3 AND type = $4
		   AND COALESCE(target_vendor, '') = $5 AND COALESCE(target_sku, '') = $6`,
		userID, key.Source, key.ResourceID, key.Type, key.TargetVendor, key.TargetSKU)
	return scanRecommendation(row)
}

func (t *pgRunTx) Insert(ctx context.Context, rec *models.Recommendation) error {
	metrics, err := marshalJSONB(rec.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	insights, err := marshalJSONB(rec.Insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}

	_, err = t.tx.Exec(ctx,
		`INSERT INTO recommendations (
			id, user_id, source, resource_id, provider_id, type, title, description,
			category, severity, estimated_monthly_savings, one_time_savings, currency,
			confidence, metrics, insights, target_vendor, target_sku, target_region,
			status, first_seen_at, last_verified_at, verification_fail_count,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23,
			$24, $25
		)`,
		rec.ID, rec.UserID, rec.Source, rec.ResourceID, rec.ProviderID, rec.Type, rec.Title,
		rec.Description, rec.Category, rec.Severity, rec.EstimatedMonthlySavings,
		rec.OneTimeSavings, rec.Currency, rec.Confidence, metrics, insights,
		rec.TargetVendor, rec.TargetSKU, rec.TargetRegion, rec.Status,
		rec.FirstSeenAt, rec.LastVerifiedAt, rec.VerificationFailCount,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

func (t *pgRunTx) Update(ctx context.Context, rec *models.Recommendation) error {
	metrics, err := marshalJSONB(rec.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	insights, err := marshalJSONB(rec.Insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}

	tag, err := t.tx.Exec(ctx,
		`UPDATE recommendations SET
			title = $2, description = $3, category = $4, severity = $5,
			estimated_monthly_savings = $6, one_time_savings = $7, currency = $8,
			confidence = $9, metrics = $10, insights = $11,
			target_vendor = $12, target_sku = $13, target_region = $14,
			status = $15, last_verified_at = $16, verification_fail_count = $17,
			updated_at = NOW()
		 WHERE id = $1`,
		rec.ID, rec.Title, rec.Description, rec.Category, rec.Severity,
		rec.EstimatedMonthlySavings, rec.OneTimeSavings, rec.Currency,
		rec.Confidence, metrics, insights,
		rec.TargetVendor, rec.TargetSKU, rec.TargetRegion,
		rec.Status, rec.LastVerifiedAt, rec.VerificationFailCount)
	if err != nil {
		return fmt.Errorf("update recommendation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgRunTx) AutoDismiss(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE recommendations
		 SET status = $2, dismissed_at = $3, dismiss_reason = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, models.StatusAutoDismissed, at, reason)
	if err != nil {
		return fmt.Errorf("auto dismiss recommendation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgRunTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgRunTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func scanRecommendation(row pgx.Row) (*models.Recommendation, error) {
	var (
		r                 models.Recommendation
		metrics, insights []byte
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Source, &r.ResourceID, &r.ProviderID, &r.Type,
		&r.Title, &r.Description, &r.AIShortDescription, &r.AILongDescription,
		&r.Category, &r.Severity, &r.EstimatedMonthlySavings, &r.OneTimeSavings,
		&r.Currency, &r.Confidence, &metrics, &insights,
		&r.TargetVendor, &r.TargetSKU, &r.TargetRegion,
		&r.Status, &r.FirstSeenAt, &r.SeenAt, &r.DismissedAt, &r.DismissReason,
		&r.SnoozedUntil, &r.AppliedAt, &r.LastVerifiedAt, &r.VerificationFailCount,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan recommendation: %w", err)
	}
	if err := unmarshalJSONB(metrics, &r.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	if err := unmarshalJSONB(insights, &r.Insights); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}
	return &r, nil
}
