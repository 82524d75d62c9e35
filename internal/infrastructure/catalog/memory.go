package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/recommender/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory catalog keyed by product_id
type MemoryStore struct {
	data  map[string]domain.CatalogItem
	mutex sync.RWMutex
}

// NewMemoryStore creates a store holding the given items.
// Later items win when product IDs repeat.
func NewMemoryStore(items []domain.CatalogItem) *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]domain.CatalogItem, len(items)),
	}
	for _, item := range items {
		store.data[item.ProductID] = item
	}
	return store
}

// LoadMemoryStore reads a JSON array of catalog items from path
func LoadMemoryStore(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", path, err)
	}

	return NewMemoryStore(items), nil
}

// FindByProductIDs returns the records matching ids in one pass
func (s *MemoryStore) FindByProductIDs(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[string]domain.CatalogItem, len(ids))
	for _, id := range ids {
		if item, ok := s.data[id]; ok {
			result[id] = item
		}
	}
	return result, nil
}

// Size returns the number of items in the store
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

var _ domain.CatalogRepository = (*MemoryStore)(nil)
