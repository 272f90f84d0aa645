package catalog

import "time"

// Product is the catalog's view of a purchasable item. Catalog management
// lives outside this service; we read products and, for administrators,
// adjust price. The stock column of the same row is owned by the stock
// ledger.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Stock       int
	CreatedAt   time.Time
}
