package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/andeanmarket/storefront/internal/order"
	"github.com/andeanmarket/storefront/internal/stock"
	"github.com/google/uuid"
)

// Collector accepts exactly one payment submission for a pending order.
// The stock commit happens here: quantities are decremented atomically only
// once the payment method validates, so a rejected submission never touches
// inventory.
type Collector struct {
	payments Repository
	orders   order.Repository
	ledger   stock.Ledger
}

func NewCollector(payments Repository, orders order.Repository, ledger stock.Ledger) *Collector {
	return &Collector{
		payments: payments,
		orders:   orders,
		ledger:   ledger,
	}
}

// Collect validates the method, commits stock and records an approved
// payment, moving the order to CONFIRMED. Any failure before the stock
// decrement leaves inventory untouched; a persistence failure after the
// decrement restores the exact quantities taken.
func (c *Collector) Collect(ctx context.Context, orderID uuid.UUID, userID int64, m Method) (*Payment, error) {
	o, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, order.ErrForbidden
	}
	if o.Status != order.StatusPendingPayment {
		return nil, order.ErrInvalidState
	}
	if _, err := c.payments.GetByOrderID(ctx, orderID); err == nil {
		return nil, order.ErrInvalidState
	} else if !errors.Is(err, ErrPaymentNotFound) {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	items := make([]stock.ItemQuantity, 0, len(o.Lines))
	for _, line := range o.Lines {
		items = append(items, stock.ItemQuantity{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	if err := c.ledger.DecrementAll(ctx, items); err != nil {
		return nil, err
	}

	p := &Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		Status:    StatusApproved,
		CreatedAt: time.Now(),
	}
	m.Apply(p)

	if err := c.payments.Create(ctx, p); err != nil {
		c.compensate(ctx, items)
		if errors.Is(err, ErrPaymentExists) {
			return nil, order.ErrInvalidState
		}
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	if err := c.orders.TransitionStatus(ctx, orderID, order.StatusPendingPayment, order.StatusConfirmed); err != nil {
		c.compensate(ctx, items)
		// Remove the payment record too, so the order stays in a clean
		// pending state and the submission can be retried.
		if delErr := c.payments.Delete(ctx, p.ID); delErr != nil {
			log.Printf("failed to remove payment %s after confirm failure: %v", p.ID, delErr)
		}
		return nil, fmt.Errorf("confirm order: %w", err)
	}

	return p, nil
}

// compensate returns quantities taken in this submission. Restoration
// failures are logged rather than surfaced: the caller's error already
// describes the submission failure.
func (c *Collector) compensate(ctx context.Context, items []stock.ItemQuantity) {
	if err := c.ledger.IncrementAll(ctx, items); err != nil {
		log.Printf("failed to restore stock after payment failure: %v", err)
	}
}
