// Package inventory runs provider syncs: it drives a collector, persists
// the gathered resources, and records the sync outcome the advisor later
// consumes.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/store"
)

// Source is one provider's inventory collector.
type Source interface {
	Vendor() string
	Collect(ctx context.Context) ([]models.Resource, error)
}

// Service persists the output of inventory collectors.
type Service struct {
	writer store.SyncWriter
	logger *zap.Logger
	clock  func() time.Time
}

// NewService wires a sync service. logger and clock may be nil.
func NewService(writer store.SyncWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{writer: writer, logger: logger, clock: time.Now}
}

// Run performs one sync of a single provider: collect, persist, complete.
// The sync row is marked failed when collection or persistence errors out,
// so a half-written sync is never picked up by the advisor.
func (s *Service) Run(ctx context.Context, userID, providerID uuid.UUID, source Source) (*models.Sync, error) {
	now := s.clock()
	sync := &models.Sync{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.SyncStatusRunning,
		StartedAt: now,
	}
	if err := s.writer.CreateSync(ctx, sync); err != nil {
		return nil, fmt.Errorf("create sync: %w", err)
	}

	provider := &models.Provider{
		ID:     providerID,
		UserID: userID,
		Vendor: source.Vendor(),
		Name:   source.Vendor(),
		Status: "active",
	}
	if err := s.writer.UpsertProvider(ctx, provider); err != nil {
		return nil, s.fail(ctx, sync, fmt.Errorf("upsert provider: %w", err))
	}
	if err := s.writer.LinkSyncProvider(ctx, sync.ID, providerID); err != nil {
		return nil, s.fail(ctx, sync, fmt.Errorf("link provider to sync: %w", err))
	}

	resources, err := source.Collect(ctx)
	if err != nil {
		return nil, s.fail(ctx, sync, fmt.Errorf("collect %s inventory: %w", source.Vendor(), err))
	}

	for i := range resources {
		resources[i].ProviderID = providerID
		if err := s.writer.UpsertResource(ctx, sync.ID, &resources[i]); err != nil {
			return nil, s.fail(ctx, sync, fmt.Errorf("persist resource %s: %w", resources[i].ExternalID, err))
		}
	}

	finishedAt := s.clock()
	if err := s.writer.FinishSync(ctx, sync.ID, models.SyncStatusCompleted, finishedAt); err != nil {
		return nil, fmt.Errorf("complete sync: %w", err)
	}
	sync.Status = models.SyncStatusCompleted
	sync.FinishedAt = &finishedAt

	s.logger.Info("inventory sync complete",
		zap.String("sync_id", sync.ID.String()),
		zap.String("vendor", source.Vendor()),
		zap.Int("resources", len(resources)))
	return sync, nil
}

func (s *Service) fail(ctx context.Context, sync *models.Sync, cause error) error {
	if err := s.writer.FinishSync(ctx, sync.ID, models.SyncStatusFailed, s.clock()); err != nil {
		s.logger.Error("marking sync failed also failed",
			zap.String("sync_id", sync.ID.String()), zap.Error(err))
	}
	return cause
}
