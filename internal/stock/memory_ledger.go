package stock

import (
	"context"
	"sync"
)

// MemoryLedger implements Ledger with in-memory storage.
type MemoryLedger struct {
	mu     sync.RWMutex
	stocks map[int64]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		stocks: make(map[int64]int),
	}
}

func (l *MemoryLedger) CheckAvailable(_ context.Context, productID int64) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stock, exists := l.stocks[productID]
	if !exists {
		return 0, ErrProductNotFound
	}
	return stock, nil
}

func (l *MemoryLedger) TryDecrement(_ context.Context, productID int64, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decrementLocked(productID, quantity)
}

func (l *MemoryLedger) Increment(_ context.Context, productID int64, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.stocks[productID]; !exists {
		return ErrProductNotFound
	}
	l.stocks[productID] += quantity
	return nil
}

// DecrementAll decrements every item or none. Validation and mutation happen
// under a single lock hold, so concurrent callers contending for the same
// product cannot both observe sufficient stock.
func (l *MemoryLedger) DecrementAll(_ context.Context, items []ItemQuantity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// First pass: validate all items have sufficient stock
	for _, item := range items {
		stock, exists := l.stocks[item.ProductID]
		if !exists {
			return ErrProductNotFound
		}
		if stock < item.Quantity {
			return ErrInsufficientStock
		}
	}

	// Second pass: apply
	for _, item := range items {
		l.stocks[item.ProductID] -= item.Quantity
	}
	return nil
}

func (l *MemoryLedger) IncrementAll(_ context.Context, items []ItemQuantity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, item := range items {
		if _, exists := l.stocks[item.ProductID]; !exists {
			return ErrProductNotFound
		}
	}
	for _, item := range items {
		l.stocks[item.ProductID] += item.Quantity
	}
	return nil
}

func (l *MemoryLedger) SetStock(_ context.Context, productID int64, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stocks[productID] = quantity
	return nil
}

func (l *MemoryLedger) decrementLocked(productID int64, quantity int) error {
	stock, exists := l.stocks[productID]
	if !exists {
		return ErrProductNotFound
	}
	if stock < quantity {
		return ErrInsufficientStock
	}
	l.stocks[productID] = stock - quantity
	return nil
}
