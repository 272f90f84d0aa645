package catalog

import (
	"context"
	"errors"
)

var ErrProductNotFound = errors.New("product not found")

type Store interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetAllProducts(ctx context.Context) ([]*Product, error)
	UpdatePrice(ctx context.Context, id int64, price float64) error
}
