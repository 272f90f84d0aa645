package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository implements Repository with in-memory storage.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[uuid.UUID]*Order)}
}

func (r *MemoryRepository) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *o
	copied.Lines = append([]Line(nil), o.Lines...)
	r.orders[o.ID] = &copied
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	copied := *o
	copied.Lines = append([]Line(nil), o.Lines...)
	return &copied, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*Order
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		copied := *o
		copied.Lines = append([]Line(nil), o.Lines...)
		orders = append(orders, &copied)
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*Order, 0, len(r.orders))
	for _, o := range r.orders {
		copied := *o
		copied.Lines = append([]Line(nil), o.Lines...)
		orders = append(orders, &copied)
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	if o.Status != from {
		return ErrInvalidState
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

func sortNewestFirst(orders []*Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
