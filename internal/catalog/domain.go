package catalog

import "time"

// Product is a catalog item as stored by the back office.
// PurchasePrice and CategoryID are nullable in the schema; absent cost is
// treated as zero by downstream aggregation.
type Product struct {
	ID            string     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Price         float64    `json:"price" db:"price"`
	PurchasePrice *float64   `json:"purchase_price,omitempty" db:"purchase_price"`
	Stock         int        `json:"stock" db:"stock"`
	MinStock      int        `json:"min_stock" db:"min_stock"`
	CategoryID    *string    `json:"category_id,omitempty" db:"category_id"`
	CreatedAt     *time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Category groups products. A product references at most one category.
type Category struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Cost returns the purchase price, defaulting to zero when unset.
func (p Product) Cost() float64 {
	if p.PurchasePrice == nil {
		return 0
	}
	return *p.PurchasePrice
}

// LowOnStock reports whether the product is at or below its minimum level.
func (p Product) LowOnStock() bool {
	return p.Stock <= p.MinStock
}
