package sales

import "time"

// Sale is a completed point-of-sale transaction with its line items.
type Sale struct {
	ID            string     `json:"id" db:"id"`
	Total         float64    `json:"total" db:"total"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	Items         []SaleItem `json:"sale_items"`
}

// SaleItem is one line of a sale. Price is the unit price at time of sale;
// Discount is a percentage in [0,100], zero when absent.
type SaleItem struct {
	ProductID string  `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"`
	Discount  float64 `json:"discount" db:"discount"`
}

// Net returns the item revenue after discount.
func (i SaleItem) Net() float64 {
	return i.Price * float64(i.Quantity) * (1 - i.Discount/100)
}
