package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/andeanmarket/storefront/internal/cart"
	"github.com/andeanmarket/storefront/internal/metrics"
	"github.com/andeanmarket/storefront/internal/order"
	"github.com/andeanmarket/storefront/internal/payment"
	"github.com/andeanmarket/storefront/internal/stock"
	"github.com/google/uuid"
)

// Actor identifies who is performing an operation. Admins may act on any
// order; everyone else only on their own.
type Actor struct {
	UserID int64
	Admin  bool
}

// CheckoutResult is the pending order together with any adjustments the
// reconciler made to the cart on the way in.
type CheckoutResult struct {
	Order    *order.Order `json:"order"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Orchestrator sequences the checkout pipeline: reconcile the cart, freeze it
// into a pending order, collect exactly one payment, and expose cancellation
// with stock restitution.
type Orchestrator struct {
	carts     *cart.Service
	builder   *order.Builder
	orders    order.Repository
	collector *payment.Collector
	payments  payment.Repository
	ledger    stock.Ledger
	session   *Session
	events    EventPublisher
	metrics   *metrics.CheckoutMetrics
}

func NewOrchestrator(
	carts *cart.Service,
	builder *order.Builder,
	orders order.Repository,
	collector *payment.Collector,
	payments payment.Repository,
	ledger stock.Ledger,
	session *Session,
	events EventPublisher,
	m *metrics.CheckoutMetrics,
) *Orchestrator {
	return &Orchestrator{
		carts:     carts,
		builder:   builder,
		orders:    orders,
		collector: collector,
		payments:  payments,
		ledger:    ledger,
		session:   session,
		events:    events,
		metrics:   m,
	}
}

// Checkout reconciles the user's cart and freezes what survives into a
// PENDING_PAYMENT order. Stock is not decremented yet; that happens when a
// payment submission approves.
func (o *Orchestrator) Checkout(ctx context.Context, userID int64) (*CheckoutResult, error) {
	reconciled, err := o.carts.Reconcile(ctx, userID)
	if err != nil {
		o.metrics.Checkouts.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(reconciled.Lines) == 0 {
		o.metrics.Checkouts.WithLabelValues("empty_cart").Inc()
		return nil, order.ErrEmptyCart
	}

	lines := make([]order.BuildLine, 0, len(reconciled.Lines))
	for _, line := range reconciled.Lines {
		lines = append(lines, order.BuildLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	built, err := o.builder.Build(ctx, userID, lines)
	if err != nil {
		o.metrics.Checkouts.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := o.session.SetPendingOrder(ctx, userID, built.ID); err != nil {
		// the order exists and is payable by id, losing the marker is not fatal
		log.Printf("failed to record pending order for user %d: %v", userID, err)
	}

	o.metrics.Checkouts.WithLabelValues("ok").Inc()
	return &CheckoutResult{Order: built, Warnings: reconciled.Warnings}, nil
}

// PendingOrder returns the order the user's current checkout is waiting on.
func (o *Orchestrator) PendingOrder(ctx context.Context, userID int64) (*order.Order, error) {
	id, err := o.session.PendingOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	return o.orders.GetByID(ctx, id)
}

func (o *Orchestrator) SubmitCardPayment(ctx context.Context, userID int64, orderID uuid.UUID, card payment.Card) (*payment.Payment, error) {
	return o.submit(ctx, userID, orderID, card)
}

func (o *Orchestrator) SubmitBankPayment(ctx context.Context, userID int64, orderID uuid.UUID, pse payment.PSE) (*payment.Payment, error) {
	return o.submit(ctx, userID, orderID, pse)
}

func (o *Orchestrator) submit(ctx context.Context, userID int64, orderID uuid.UUID, m payment.Method) (*payment.Payment, error) {
	p, err := o.collector.Collect(ctx, orderID, userID, m)
	if err != nil {
		o.metrics.Payments.WithLabelValues(m.Type(), "rejected").Inc()
		return nil, err
	}

	if err := o.carts.Clear(ctx, userID); err != nil && !errors.Is(err, cart.ErrCartNotFound) {
		log.Printf("failed to clear cart for user %d after payment: %v", userID, err)
	}
	o.session.Clear(ctx, userID)

	confirmed, err := o.orders.GetByID(ctx, orderID)
	if err == nil {
		if pubErr := o.events.Publish(ctx, EventOrderConfirmed, confirmed); pubErr != nil {
			log.Printf("failed to publish confirmation for order %s: %v", orderID, pubErr)
		}
	}

	o.metrics.Payments.WithLabelValues(m.Type(), "approved").Inc()
	return p, nil
}

// Cancel voids an order. If the order had already committed stock the exact
// quantities of every line are returned to the ledger. Cancelling an order
// that is DELIVERED or already CANCELLED fails with ErrInvalidState and
// mutates nothing, which makes double-cancellation safe.
func (o *Orchestrator) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) error {
	ord, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !actor.Admin && ord.UserID != actor.UserID {
		return order.ErrForbidden
	}
	if !ord.Status.CanCancel() {
		return order.ErrInvalidState
	}

	// Flip the status first via compare-and-set so that concurrent cancels
	// resolve to a single winner, then restitute stock exactly once.
	if err := o.orders.TransitionStatus(ctx, orderID, ord.Status, order.StatusCancelled); err != nil {
		return err
	}

	if ord.Status.StockCommitted() {
		items := make([]stock.ItemQuantity, 0, len(ord.Lines))
		for _, line := range ord.Lines {
			items = append(items, stock.ItemQuantity{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
		if err := o.ledger.IncrementAll(ctx, items); err != nil {
			return fmt.Errorf("restore stock for order %s: %w", orderID, err)
		}
	}

	if p, err := o.payments.GetByOrderID(ctx, orderID); err == nil {
		if err := o.payments.UpdateStatus(ctx, p.ID, payment.StatusCancelled); err != nil {
			log.Printf("failed to cancel payment for order %s: %v", orderID, err)
		}
	} else if !errors.Is(err, payment.ErrPaymentNotFound) {
		log.Printf("failed to load payment for order %s: %v", orderID, err)
	}

	ord.Status = order.StatusCancelled
	if err := o.events.Publish(ctx, EventOrderCancelled, ord); err != nil {
		log.Printf("failed to publish cancellation for order %s: %v", orderID, err)
	}

	o.metrics.Cancellations.Inc()
	return nil
}

// UpdateStatus applies an administrative fulfillment transition. Cancellation
// goes through Cancel, never through here.
func (o *Orchestrator) UpdateStatus(ctx context.Context, orderID uuid.UUID, next order.Status) error {
	if next == order.StatusCancelled {
		return order.ErrInvalidState
	}

	ord, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !ord.Status.CanTransitionTo(next) {
		return order.ErrInvalidState
	}
	return o.orders.TransitionStatus(ctx, orderID, ord.Status, next)
}
