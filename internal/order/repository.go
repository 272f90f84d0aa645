package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty, nothing to checkout")
	ErrStockChanged  = errors.New("stock changed since cart validation")
	ErrForbidden     = errors.New("order belongs to another user")
	ErrInvalidState  = errors.New("operation not allowed in current order state")
)

type Repository interface {
	// Create persists the order and all its lines as one atomic unit.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// TransitionStatus moves the order from one status to another in a single
	// compare-and-set. Returns ErrInvalidState when the order is no longer in
	// the expected status, so concurrent transitions resolve to one winner.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error
}
