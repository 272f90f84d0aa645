package cart

import (
	"context"
	"errors"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

type Repository interface {
	GetCart(ctx context.Context, userID int64) (*Cart, error)
	// SetItemQuantity stores an absolute quantity for a (user, product) line,
	// creating the cart and the line as needed.
	SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	DeleteCart(ctx context.Context, userID int64) error
}
