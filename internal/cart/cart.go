package cart

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    int64      `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID int64     `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Item returns the cart line for a product, or nil.
func (c *Cart) Item(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Line is a reconciled cart line: the stored quantity joined with the live
// catalog name and price.
type Line struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// ReconciledCart is the result of validating a cart against live stock.
// Warnings carry one human-readable message per adjusted or removed line.
type ReconciledCart struct {
	Lines    []Line   `json:"lines"`
	Total    float64  `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}
