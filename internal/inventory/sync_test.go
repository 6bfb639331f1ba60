package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/costwise/costwise/internal/models"
)

type fakeWriter struct {
	syncs     map[uuid.UUID]*models.Sync
	providers []*models.Provider
	links     int
	resources []models.Resource

	upsertResourceErr error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{syncs: make(map[uuid.UUID]*models.Sync)}
}

func (w *fakeWriter) CreateSync(ctx context.Context, sync *models.Sync) error {
	cp := *sync
	w.syncs[sync.ID] = &cp
	return nil
}

func (w *fakeWriter) FinishSync(ctx context.Context, syncID uuid.UUID, status string, at time.Time) error {
	sy, ok := w.syncs[syncID]
	if !ok {
		return errors.New("sync not found")
	}
	sy.Status = status
	sy.FinishedAt = &at
	return nil
}

func (w *fakeWriter) UpsertProvider(ctx context.Context, provider *models.Provider) error {
	w.providers = append(w.providers, provider)
	return nil
}

func (w *fakeWriter) LinkSyncProvider(ctx context.Context, syncID, providerID uuid.UUID) error {
	w.links++
	return nil
}

func (w *fakeWriter) UpsertResource(ctx context.Context, syncID uuid.UUID, res *models.Resource) error {
	if w.upsertResourceErr != nil {
		return w.upsertResourceErr
	}
	w.resources = append(w.resources, *res)
	return nil
}

type fakeSource struct {
	resources []models.Resource
	err       error
}

func (s fakeSource) Vendor() string { return "aws" }

func (s fakeSource) Collect(ctx context.Context) ([]models.Resource, error) {
	return s.resources, s.err
}

func TestRun_CompletesAndPersists(t *testing.T) {
	w := newFakeWriter()
	svc := NewService(w, nil)
	userID, providerID := uuid.New(), uuid.New()

	source := fakeSource{resources: []models.Resource{
		{ID: uuid.New(), Vendor: "aws", ExternalID: "i-1", Kind: models.KindServer},
		{ID: uuid.New(), Vendor: "aws", ExternalID: "vol-1", Kind: models.KindVolume},
	}}

	sync, err := svc.Run(context.Background(), userID, providerID, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sync.Status != models.SyncStatusCompleted || sync.FinishedAt == nil {
		t.Errorf("sync = %q/%v; want completed with a finish time", sync.Status, sync.FinishedAt)
	}
	if stored := w.syncs[sync.ID]; stored == nil || stored.Status != models.SyncStatusCompleted {
		t.Error("the stored sync row must be marked completed")
	}
	if len(w.providers) != 1 || w.providers[0].Vendor != "aws" || w.links != 1 {
		t.Errorf("providers/links = %d/%d; want the provider upserted and linked once",
			len(w.providers), w.links)
	}
	if len(w.resources) != 2 {
		t.Fatalf("persisted resources = %d; want 2", len(w.resources))
	}
	for _, res := range w.resources {
		if res.ProviderID != providerID {
			t.Errorf("resource %s provider = %v; want stamped with %v", res.ExternalID, res.ProviderID, providerID)
		}
	}
}

func TestRun_CollectFailureMarksSyncFailed(t *testing.T) {
	w := newFakeWriter()
	svc := NewService(w, nil)

	_, err := svc.Run(context.Background(), uuid.New(), uuid.New(),
		fakeSource{err: errors.New("throttled")})
	if err == nil {
		t.Fatal("want the collect error surfaced")
	}

	if len(w.syncs) != 1 {
		t.Fatalf("syncs = %d; want the created row", len(w.syncs))
	}
	for _, sy := range w.syncs {
		if sy.Status != models.SyncStatusFailed {
			t.Errorf("sync status = %q; want failed", sy.Status)
		}
	}
	if len(w.resources) != 0 {
		t.Errorf("resources = %d; nothing may be persisted", len(w.resources))
	}
}

func TestRun_PersistFailureMarksSyncFailed(t *testing.T) {
	w := newFakeWriter()
	w.upsertResourceErr = errors.New("disk full")
	svc := NewService(w, nil)

	_, err := svc.Run(context.Background(), uuid.New(), uuid.New(),
		fakeSource{resources: []models.Resource{{ID: uuid.New(), ExternalID: "i-1", Kind: models.KindServer}}})
	if err == nil {
		t.Fatal("want the persistence error surfaced")
	}
	for _, sy := range w.syncs {
		if sy.Status != models.SyncStatusFailed {
			t.Errorf("sync status = %q; want failed", sy.Status)
		}
	}
}
