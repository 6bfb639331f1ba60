// Package store is the data access layer. All database operations go
// through the interfaces defined here; the engine never touches SQL.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/costwise/costwise/internal/models"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// InventoryStore resolves the provider set and resource inventory of a sync.
// Inventory is read-only to the engine.
type InventoryStore interface {
	GetSync(ctx context.Context, syncID uuid.UUID) (*models.Sync, error)
	ProvidersForSync(ctx context.Context, syncID uuid.UUID) ([]models.Provider, error)
	ResourcesForProviders(ctx context.Context, providerIDs []uuid.UUID) ([]models.Resource, error)
}

// CatalogStore queries the price catalog. Results are ordered by monthly
// cost ascending.
type CatalogStore interface {
	Query(ctx context.Context, f models.CatalogFilter) ([]models.PriceCatalogEntry, error)
}

// SettingsStore exposes stored rule settings and vendor preferences.
type SettingsStore interface {
	RuleSettings(ctx context.Context, userID uuid.UUID) ([]models.RuleSetting, error)
	DismissedVendors(ctx context.Context, userID uuid.UUID) ([]string, error)
	PreferredVendors(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// RunTx is the single transaction scoping all recommendation writes of one
// advisor run. Nothing is visible to other readers until Commit; Rollback
// discards everything.
type RunTx interface {
	// GetByKey returns the persisted row matching the uniqueness key,
	// whatever its status, or ErrNotFound.
	GetByKey(ctx context.Context, userID uuid.UUID, key models.RecommendationKey) (*models.Recommendation, error)

	// Insert creates a new recommendation. Returns ErrDuplicateKey when a
	// concurrent writer already created a row for the same key.
	Insert(ctx context.Context, rec *models.Recommendation) error

	// Update rewrites the mutable fields of an existing row.
	Update(ctx context.Context, rec *models.Recommendation) error

	// AutoDismiss transitions a row to auto_dismissed with a system reason.
	AutoDismiss(ctx context.Context, id uuid.UUID, reason string, at time.Time) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RecommendationStore manages persisted recommendations.
type RecommendationStore interface {
	// BeginRun opens the run-scoped transaction.
	BeginRun(ctx context.Context) (RunTx, error)

	// Get reads one recommendation outside any run transaction.
	Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)

	// SetDescriptions stores the AI-generated texts for a committed row.
	SetDescriptions(ctx context.Context, id uuid.UUID, short, long string) error
}

// Store aggregates every data access concern behind one implementation.
type Store interface {
	InventoryStore
	CatalogStore
	SettingsStore
	RecommendationStore

	Ping(ctx context.Context) error
}
