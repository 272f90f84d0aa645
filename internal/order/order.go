package order

import (
	"time"

	"github.com/google/uuid"
)

// Order is a user's committed intent to purchase a frozen set of lines at a
// frozen price. Total and lines are immutable after creation; only status
// moves, through the transitions below.
type Order struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
	Total     float64   `json:"total"`
	Status    Status    `json:"status"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line freezes the product name and unit price at purchase time; later
// catalog price changes never touch it.
type Line struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}
