package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/costwise/costwise/internal/models"
)

// SyncWriter is the write-side used by inventory sync adapters. It is
// separate from the engine-facing read interfaces: the engine never writes
// inventory.
type SyncWriter interface {
	CreateSync(ctx context.Context, sync *models.Sync) error
	FinishSync(ctx context.Context, syncID uuid.UUID, status string, at time.Time) error
	UpsertProvider(ctx context.Context, provider *models.Provider) error
	LinkSyncProvider(ctx context.Context, syncID, providerID uuid.UUID) error
	UpsertResource(ctx context.Context, syncID uuid.UUID, res *models.Resource) error
}

func (s *PostgresStore) CreateSync(ctx context.Context, sync *models.Sync) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO syncs (id, user_id, status, started_at) VALUES ($1, $2, $3, $4)`,
		sync.ID, sync.UserID, sync.Status, sync.StartedAt)
	if err != nil {
		return fmt.Errorf("create sync: %w", err)
	}
	return nil
}

func (s *PostgresStore) FinishSync(ctx context.Context, syncID uuid.UUID, status string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE syncs SET status = $2, finished_at = $3 WHERE id = $1`,
		syncID, status, at)
	if err != nil {
		return fmt.Errorf("finish sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpsertProvider(ctx context.Context, provider *models.Provider) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO providers (id, user_id, vendor, name, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   status = EXCLUDED.status,
		   updated_at = NOW()`,
		provider.ID, provider.UserID, provider.Vendor, provider.Name, provider.Status)
	if err != nil {
		return fmt.Errorf("upsert provider: %w", err)
	}
	return nil
}

func (s *PostgresStore) LinkSyncProvider(ctx context.Context, syncID, providerID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_providers (sync_id, provider_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, syncID, providerID)
	if err != nil {
		return fmt.Errorf("link sync provider: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertResource(ctx context.Context, syncID uuid.UUID, res *models.Resource) error {
	tags, err := marshalJSONB(res.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	spec, err := marshalJSONB(res.Spec)
	if err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}
	rawConfig, err := marshalJSONB(res.RawConfig)
	if err != nil {
		return fmt.Errorf("encode raw config: %w", err)
	}

	var providerCreatedAt *time.Time
	if !res.CreatedAt.IsZero() {
		providerCreatedAt = &res.CreatedAt
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO resources (
			id, provider_id, sync_id, external_id, name, kind, region, status,
			tags, spec, raw_config, daily_cost, monthly_cost, currency, provider_created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (provider_id, external_id) DO UPDATE SET
			sync_id = EXCLUDED.sync_id,
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			region = EXCLUDED.region,
			status = EXCLUDED.status,
			tags = EXCLUDED.tags,
			spec = EXCLUDED.spec,
			raw_config = EXCLUDED.raw_config,
			daily_cost = EXCLUDED.daily_cost,
			monthly_cost = EXCLUDED.monthly_cost,
			currency = EXCLUDED.currency,
			provider_created_at = EXCLUDED.provider_created_at,
			updated_at = NOW()`,
		res.ID, res.ProviderID, syncID, res.ExternalID, res.Name, res.Kind, res.Region,
		res.Status, tags, spec, rawConfig, res.DailyCost, res.MonthlyCost, res.Currency,
		providerCreatedAt)
	if err != nil {
		return fmt.Errorf("upsert resource: %w", err)
	}
	return nil
}
