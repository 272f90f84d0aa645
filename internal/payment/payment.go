package payment

import (
	"time"

	"github.com/google/uuid"
)

const (
	MethodCard = "card"
	MethodPSE  = "pse"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Payment records the single payment attempt accepted for an order.
// Sensitive inputs are masked to their last four digits before they reach
// this struct.
type Payment struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	Method  string    `json:"method"`
	Status  Status    `json:"status"`

	// card fields
	CardLast4  string `json:"card_last4,omitempty"`
	CardHolder string `json:"card_holder,omitempty"`

	// pse fields
	Bank         string `json:"bank,omitempty"`
	PayerType    string `json:"payer_type,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	DocLast4     string `json:"document_last4,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
