package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used in tests and local runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Payment
	byOrder map[uuid.UUID]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]*Payment),
		byOrder: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[p.OrderID]; exists {
		return ErrPaymentExists
	}
	cp := *p
	r.byID[p.ID] = &cp
	r.byOrder[p.OrderID] = p.ID
	return nil
}

func (r *MemoryRepository) GetByOrderID(_ context.Context, orderID uuid.UUID) (*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = status
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return ErrPaymentNotFound
	}
	delete(r.byOrder, p.OrderID)
	delete(r.byID, id)
	return nil
}
