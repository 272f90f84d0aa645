package stock

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound   = errors.New("product not found in stock ledger")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ItemQuantity pairs a product with a unit count for batch ledger operations.
type ItemQuantity struct {
	ProductID int64
	Quantity  int
}

// Ledger is the authoritative counter of purchasable units per product.
// TryDecrement and DecrementAll are atomic check-and-decrement operations:
// a failed call leaves stock untouched, and DecrementAll never applies a
// partial batch.
type Ledger interface {
	CheckAvailable(ctx context.Context, productID int64) (int, error)
	TryDecrement(ctx context.Context, productID int64, quantity int) error
	Increment(ctx context.Context, productID int64, quantity int) error
	DecrementAll(ctx context.Context, items []ItemQuantity) error
	IncrementAll(ctx context.Context, items []ItemQuantity) error
	SetStock(ctx context.Context, productID int64, quantity int) error
}
