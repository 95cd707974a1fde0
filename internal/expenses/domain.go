package expenses

import "time"

// Expense is a recorded business cost. Category is free-form text; empty
// maps to the "Uncategorized" bucket in breakdowns.
type Expense struct {
	ID          string    `json:"id" db:"id"`
	Description string    `json:"description" db:"description"`
	Amount      float64   `json:"amount" db:"amount"`
	Category    string    `json:"category" db:"category"`
	IncurredAt  time.Time `json:"incurred_at" db:"incurred_at"`
}

// CreateExpenseRequest carries a new expense from the transport layer.
type CreateExpenseRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Category    string  `json:"category" validate:"max=100"`
	IncurredAt  string  `json:"incurred_at" validate:"omitempty,datetime=2006-01-02"`
}

// CategoryShare is one slice of an expense breakdown.
type CategoryShare struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"` // percentage of the grand total, 0-100
	Count    int     `json:"count"`
}

// Breakdown summarises expenses per category over a period.
type Breakdown struct {
	Total  float64         `json:"total"`
	Shares []CategoryShare `json:"shares"`
}
