package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/rules"
	"github.com/costwise/costwise/internal/store"
)

// fakeStore is an in-memory store.Store. Recommendation writes go through a
// staged transaction copy and only land in rows on Commit, mirroring the
// atomicity contract of the real implementation.
type fakeStore struct {
	sync      *models.Sync
	providers []models.Provider
	resources []models.Resource
	settings  []models.RuleSetting

	rows map[models.RecommendationKey]*models.Recommendation

	commitErr error
	// concurrentInsert, when set, is planted into the transaction on the next
	// Insert call which then fails with ErrDuplicateKey, simulating a
	// concurrent run winning the insert race.
	concurrentInsert *models.Recommendation

	begun     int
	commits   int
	rollbacks int

	descriptions map[uuid.UUID][2]string
}

func fixtureStore() (*fakeStore, models.Resource) {
	userID := uuid.New()
	providerID := uuid.New()
	res := models.Resource{
		ID:          uuid.New(),
		ProviderID:  providerID,
		Vendor:      "alpha",
		ExternalID:  "srv-1",
		Name:        "srv-1",
		Kind:        models.KindServer,
		Region:      "ru-1",
		Status:      models.StatusActive,
		MonthlyCost: 1000,
		Currency:    "USD",
	}
	s := &fakeStore{
		sync: &models.Sync{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    models.SyncStatusCompleted,
			StartedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		},
		providers: []models.Provider{
			{ID: providerID, UserID: userID, Vendor: "alpha", Name: "alpha", Status: "active"},
		},
		resources:    []models.Resource{res},
		rows:         make(map[models.RecommendationKey]*models.Recommendation),
		descriptions: make(map[uuid.UUID][2]string),
	}
	return s, res
}

func (s *fakeStore) seed(rec *models.Recommendation) {
	s.rows[rec.Key()] = rec
}

func (s *fakeStore) GetSync(ctx context.Context, syncID uuid.UUID) (*models.Sync, error) {
	if s.sync == nil || s.sync.ID != syncID {
		return nil, store.ErrNotFound
	}
	cp := *s.sync
	return &cp, nil
}

func (s *fakeStore) ProvidersForSync(ctx context.Context, syncID uuid.UUID) ([]models.Provider, error) {
	return s.providers, nil
}

func (s *fakeStore) ResourcesForProviders(ctx context.Context, providerIDs []uuid.UUID) ([]models.Resource, error) {
	var out []models.Resource
	for _, res := range s.resources {
		for _, id := range providerIDs {
			if res.ProviderID == id {
				out = append(out, res)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) Query(ctx context.Context, f models.CatalogFilter) ([]models.PriceCatalogEntry, error) {
	return nil, nil
}

func (s *fakeStore) RuleSettings(ctx context.Context, userID uuid.UUID) ([]models.RuleSetting, error) {
	return s.settings, nil
}

func (s *fakeStore) DismissedVendors(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) PreferredVendors(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) BeginRun(ctx context.Context) (store.RunTx, error) {
	s.begun++
	staged := make(map[models.RecommendationKey]*models.Recommendation, len(s.rows))
	for k, rec := range s.rows {
		cp := *rec
		staged[k] = &cp
	}
	return &fakeTx{s: s, staged: staged}, nil
}

func (s *fakeStore) Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	for _, rec := range s.rows {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) SetDescriptions(ctx context.Context, id uuid.UUID, short, long string) error {
	s.descriptions[id] = [2]string{short, long}
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

type fakeTx struct {
	s      *fakeStore
	staged map[models.RecommendationKey]*models.Recommendation
}

func (t *fakeTx) GetByKey(ctx context.Context, userID uuid.UUID, key models.RecommendationKey) (*models.Recommendation, error) {
	if rec, ok := t.staged[key]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

func (t *fakeTx) Insert(ctx context.Context, rec *models.Recommendation) error {
	if planted := t.s.concurrentInsert; planted != nil {
		t.s.concurrentInsert = nil
		t.staged[planted.Key()] = planted
		return store.ErrDuplicateKey
	}
	if _, exists := t.staged[rec.Key()]; exists {
		return store.ErrDuplicateKey
	}
	t.staged[rec.Key()] = rec
	return nil
}

func (t *fakeTx) Update(ctx context.Context, rec *models.Recommendation) error {
	for k, existing := range t.staged {
		if existing.ID == rec.ID {
			delete(t.staged, k)
			break
		}
	}
	t.staged[rec.Key()] = rec
	return nil
}

func (t *fakeTx) AutoDismiss(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	for _, rec := range t.staged {
		if rec.ID == id {
			rec.Status = models.StatusAutoDismissed
			rec.DismissReason = reason
			rec.DismissedAt = &at
			rec.UpdatedAt = at
			return nil
		}
	}
	return store.ErrNotFound
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.s.commitErr != nil {
		return t.s.commitErr
	}
	t.s.rows = t.staged
	t.s.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.s.rollbacks++
	return nil
}

// emitRule is a resource-scoped rule returning canned outputs.
type emitRule struct {
	id      string
	outputs []models.RecommendationOutput
	panics  bool
}

func (r emitRule) ID() string                   { return r.id }
func (r emitRule) Name() string                 { return "emit " + r.id }
func (r emitRule) Category() models.Category    { return models.CategoryCost }
func (r emitRule) Kinds() []models.ResourceKind { return []models.ResourceKind{models.KindServer} }
func (r emitRule) Vendors() []string            { return nil }

func (r emitRule) Evaluate(ctx context.Context, rctx rules.RuleContext, res *models.Resource) ([]models.RecommendationOutput, error) {
	if r.panics {
		panic("broken rule")
	}
	return r.outputs, nil
}

// emitGlobalRule is the global-scoped counterpart.
type emitGlobalRule struct {
	id      string
	outputs []models.RecommendationOutput
}

func (r emitGlobalRule) ID() string                { return r.id }
func (r emitGlobalRule) Name() string              { return "emit " + r.id }
func (r emitGlobalRule) Category() models.Category { return models.CategoryCost }

func (r emitGlobalRule) EvaluateGlobal(ctx context.Context, rctx rules.RuleContext, inventory []models.Resource) ([]models.RecommendationOutput, error) {
	return r.outputs, nil
}

func output(res models.Resource, typ string, savings float64) models.RecommendationOutput {
	return models.RecommendationOutput{
		Type:                    typ,
		Title:                   "finding",
		Description:             "finding detail",
		Category:                models.CategoryCost,
		Severity:                models.SeverityMedium,
		EstimatedMonthlySavings: savings,
		Currency:                "USD",
		Confidence:              0.9,
		ResourceID:              res.ID,
		ProviderID:              res.ProviderID,
	}
}
