package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed access to sales history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBetween returns sales whose created_at falls inside [from, to), each
// with its items attached. Rows come back ordered by sale id so items can be
// grouped in a single pass.
func (r *Repository) ListBetween(ctx context.Context, from, to time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.total, s.payment_method, s.created_at,
		       i.product_id, i.quantity, i.price, COALESCE(i.discount, 0)
		FROM sales s
		LEFT JOIN sale_items i ON i.sale_id = s.id
		WHERE s.created_at >= $1 AND s.created_at < $2
		ORDER BY s.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("sales: list between: %w", err)
	}
	defer rows.Close()

	var (
		result  []Sale
		current *Sale
	)
	for rows.Next() {
		var (
			sale      Sale
			productID *string
			quantity  *int
			price     *float64
			discount  *float64
		)
		if err := rows.Scan(&sale.ID, &sale.Total, &sale.PaymentMethod, &sale.CreatedAt,
			&productID, &quantity, &price, &discount); err != nil {
			return nil, fmt.Errorf("sales: scan: %w", err)
		}
		if current == nil || current.ID != sale.ID {
			result = append(result, sale)
			current = &result[len(result)-1]
		}
		if productID != nil {
			current.Items = append(current.Items, SaleItem{
				ProductID: *productID,
				Quantity:  deref(quantity),
				Price:     derefF(price),
				Discount:  derefF(discount),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales: rows: %w", err)
	}
	return result, nil
}

// CountBetween returns the number of sales in [from, to).
func (r *Repository) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sales WHERE created_at >= $1 AND created_at < $2`, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sales: count between: %w", err)
	}
	return n, nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefF(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
