package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentExists   = errors.New("order already has a payment")
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// Delete removes a payment record. Used only to unwind a submission whose
	// order confirmation failed, so the order stays retryable.
	Delete(ctx context.Context, id uuid.UUID) error
}
