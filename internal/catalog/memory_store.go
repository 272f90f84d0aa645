package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store with in-memory storage. It backs tests and
// local development without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]*Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]*Product),
	}
}

// Seed inserts or replaces a product.
func (s *MemoryStore) Seed(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := p
	s.products[p.ID] = &copied
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *MemoryStore) GetAllProducts(_ context.Context) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		copied := *p
		products = append(products, &copied)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryStore) UpdatePrice(_ context.Context, id int64, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return ErrProductNotFound
	}
	p.Price = price
	return nil
}
