package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/costwise/costwise/internal/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Syncs & inventory ---

func (s *PostgresStore) GetSync(ctx context.Context, syncID uuid.UUID) (*models.Sync, error) {
	var sy models.Sync
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, status, started_at, finished_at FROM syncs WHERE id = $1`,
		syncID,
	).Scan(&sy.ID, &sy.UserID, &sy.Status, &sy.StartedAt, &sy.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sync: %w", err)
	}
	return &sy, nil
}

func (s *PostgresStore) ProvidersForSync(ctx context.Context, syncID uuid.UUID) ([]models.Provider, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.user_id, p.vendor, p.name, p.status
		 FROM providers p
		 JOIN sync_providers sp ON sp.provider_id = p.id
		 WHERE sp.sync_id = $1
		 ORDER BY p.created_at`, syncID)
	if err != nil {
		return nil, fmt.Errorf("providers for sync: %w", err)
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		var p models.Provider
		if err := rows.Scan(&p.ID, &p.UserID, &p.Vendor, &p.Name, &p.Status); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (s *PostgresStore) ResourcesForProviders(ctx context.Context, providerIDs []uuid.UUID) ([]models.Resource, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.provider_id, p.vendor, r.external_id, r.name, r.kind, r.region, r.status,
		        r.tags, r.spec, r.raw_config, r.daily_cost, r.monthly_cost, r.currency, r.provider_created_at
		 FROM resources r
		 JOIN providers p ON p.id = r.provider_id
		 WHERE r.provider_id = ANY($1)
		 ORDER BY r.provider_id, r.external_id`, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("resources for providers: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, rows.Err()
}

func scanResource(row pgx.Row) (*models.Resource, error) {
	var (
		r                       models.Resource
		tags, spec, rawConfig   []byte
		providerCreatedAt       *time.Time
	)
	if err := row.Scan(&r.ID, &r.ProviderID, &r.Vendor, &r.ExternalID, &r.Name, &r.Kind, &r.Region,
		&r.Status, &tags, &spec, &rawConfig, &r.DailyCost, &r.MonthlyCost, &r.Currency,
		&providerCreatedAt); err != nil {
		return nil, fmt.Errorf("scan resource: %w", err)
	}
	if err := unmarshalJSONB(tags, &r.Tags); err != nil {
		return nil, fmt.Errorf("decode resource tags: %w", err)
	}
	if err := unmarshalJSONB(spec, &r.Spec); err != nil {
		return nil, fmt.Errorf("decode resource spec: %w", err)
	}
	if err := unmarshalJSONB(rawConfig, &r.RawConfig); err != nil {
		return nil, fmt.Errorf("decode resource raw config: %w", err)
	}
	if providerCreatedAt != nil {
		r.CreatedAt = *providerCreatedAt
	}
	return &r, nil
}

// --- Rule settings & vendor preferences ---

func (s *PostgresStore) RuleSettings(ctx context.Context, userID uuid.UUID) ([]models.RuleSetting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT rule_id, scope, COALESCE(vendor, ''), COALESCE(kind, ''), enabled, COALESCE(description, '')
		 FROM rule_settings WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("rule settings: %w", err)
	}
	defer rows.Close()

	var settings []models.RuleSetting
	for rows.Next() {
		var rs models.RuleSetting
		if err := rows.Scan(&rs.RuleID, &rs.Scope, &rs.Vendor, &rs.Kind, &rs.Enabled, &rs.Description); err != nil {
			return nil, fmt.Errorf("scan rule setting: %w", err)
		}
		settings = append(settings, rs)
	}
	return settings, rows.Err()
}

func (s *PostgresStore) DismissedVendors(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.vendorList(ctx,
		`SELECT vendor FROM vendor_preferences WHERE user_id = $1 AND dismissed ORDER BY vendor`, userID)
}

func (s *PostgresStore) PreferredVendors(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.vendorList(ctx,
		`SELECT vendor FROM vendor_preferences WHERE user_id = $1 AND preferred ORDER BY vendor`, userID)
}

func (s *PostgresStore) vendorList(ctx context.Context, query string, userID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("vendor preferences: %w", err)
	}
	defer rows.Close()

	var vendors []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// --- helpers ---

func unmarshalJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func marshalJSONB(src any) ([]byte, error) {
	if src == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(src)
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	// 23505 = unique_violation
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
