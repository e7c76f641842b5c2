package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront/models"
)

// CatalogStore holds the product list fetched once per session.
// After a failed load the snapshot is empty, never nil.
type CatalogStore struct {
	api CatalogAPI
	obs Observers

	loadMu sync.Mutex // serializes fetches

	mu       sync.RWMutex
	products []models.Product
	byID     map[string]models.Product
	loaded   bool
}

// NewCatalogStore creates an empty CatalogStore
func NewCatalogStore(api CatalogAPI, obs Observers) *CatalogStore {
	return &CatalogStore{
		api:      api,
		obs:      obs,
		products: []models.Product{},
		byID:     map[string]models.Product{},
	}
}

// Ensure CatalogStore implements CatalogSnapshotter
var _ CatalogSnapshotter = (*CatalogStore)(nil)

// Load fetches the catalog unless a previous load succeeded.
// On failure it returns an empty catalog and a CatalogUnavailable error; calling
// Load again retries.
func (s *CatalogStore) Load(ctx context.Context) ([]models.Product, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.Loaded() {
		return s.Snapshot(), nil
	}

	log := s.obs.logger()
	products, err := s.api.GetProducts(ctx)
	if err != nil {
		storeErr := classify(opCatalog, err)
		log.Warn("catalog load failed", zap.Error(err))
		s.set([]models.Product{}, false)
		s.obs.Metrics.ObserveCatalogLoad("failed")
		s.obs.record(ctx, models.ActivityEvent{
			Kind:    models.ActivityCatalogLoad,
			Outcome: outcomeOf(storeErr),
			Message: storeErr.Message,
		})
		return []models.Product{}, storeErr
	}

	s.set(products, true)
	log.Debug("catalog loaded", zap.Int("products", len(products)))
	s.obs.Metrics.ObserveCatalogLoad("ok")
	s.obs.record(ctx, models.ActivityEvent{
		Kind:    models.ActivityCatalogLoad,
		Qty:     len(products),
		Outcome: "ok",
	})
	return s.Snapshot(), nil
}

func (s *CatalogStore) set(products []models.Product, loaded bool) {
	copied := make([]models.Product, len(products))
	copy(copied, products)

	byID := make(map[string]models.Product, len(copied))
	for _, p := range copied {
		byID[p.ID] = p
	}

	s.mu.Lock()
	s.products = copied
	s.byID = byID
	s.loaded = loaded
	s.mu.Unlock()
}

// Loaded reports whether a load succeeded
func (s *CatalogStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the current catalog
func (s *CatalogStore) Snapshot() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Lookup returns the product with id
func (s *CatalogStore) Lookup(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	return p, ok
}
