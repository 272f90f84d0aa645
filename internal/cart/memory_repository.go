package cart

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used in tests and local runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[int64]*Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[int64]*Cart)}
}

func (r *MemoryRepository) GetCart(_ context.Context, userID int64) (*Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	return &cp, nil
}

func (r *MemoryRepository) SetItemQuantity(_ context.Context, userID, productID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		now := time.Now()
		c = &Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}
		r.carts[userID] = c
	}
	c.UpdatedAt = time.Now()

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
	return nil
}

func (r *MemoryRepository) RemoveItem(_ context.Context, userID, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		return ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrItemNotFound
}

func (r *MemoryRepository) DeleteCart(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, userID)
	return nil
}
