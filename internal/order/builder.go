package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/andeanmarket/storefront/internal/stock"
	"github.com/google/uuid"
)

// BuildLine is a validated cart line handed to the builder.
type BuildLine struct {
	ProductID int64
	Quantity  int
}

// Builder converts a validated cart into an immutable order. Stock is
// re-checked at build time because it may have moved since reconciliation,
// but it is NOT decremented here: the irreversible stock commit happens only
// at payment success.
type Builder struct {
	repo    Repository
	catalog catalog.Store
	ledger  stock.Ledger
}

func NewBuilder(repo Repository, cat catalog.Store, ledger stock.Ledger) *Builder {
	return &Builder{
		repo:    repo,
		catalog: cat,
		ledger:  ledger,
	}
}

// Build creates an order in PENDING_PAYMENT with every line's price frozen at
// the current catalog price. If any line now exceeds live stock the whole
// build aborts with ErrStockChanged and nothing is persisted.
func (b *Builder) Build(ctx context.Context, userID int64, lines []BuildLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now()
	o := &Order{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    StatusPendingPayment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, line := range lines {
		product, err := b.catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, ErrStockChanged
		}
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", line.ProductID, err)
		}

		available, err := b.ledger.CheckAvailable(ctx, line.ProductID)
		if errors.Is(err, stock.ErrProductNotFound) {
			return nil, ErrStockChanged
		}
		if err != nil {
			return nil, fmt.Errorf("check stock for product %d: %w", line.ProductID, err)
		}
		if line.Quantity > available {
			return nil, ErrStockChanged
		}

		subtotal := product.Price * float64(line.Quantity)
		o.Lines = append(o.Lines, Line{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
		o.Total += subtotal
	}

	if err := b.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	return o, nil
}
