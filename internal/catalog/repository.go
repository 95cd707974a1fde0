package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

// ErrNotFound wraps the transport sentinel so handlers map it to 404.
var ErrNotFound = fmt.Errorf("catalog: %w", httpx.ErrNotFound)

// fetchPageSize matches the hosted-database page limit: listings are pulled
// 1000 rows at a time until a short page signals the end.
const fetchPageSize = 1000

// Repository provides PostgreSQL backed access to products and categories.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, price, purchase_price, stock, min_stock, category_id, created_at`

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.PurchasePrice, &p.Stock, &p.MinStock, &p.CategoryID, &p.CreatedAt)
	return p, err
}

// ListProducts returns the full catalog, paging through the table until a
// short page is returned.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	var all []Product
	for offset := 0; ; offset += fetchPageSize {
		rows, err := r.pool.Query(ctx,
			fmt.Sprintf(`SELECT %s FROM products ORDER BY id LIMIT $1 OFFSET $2`, productColumns),
			fetchPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("catalog: list products: %w", err)
		}
		page, err := pgx.CollectRows(rows, scanProduct)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan products: %w", err)
		}
		all = append(all, page...)
		if len(page) < fetchPageSize {
			return all, nil
		}
	}
}

// GetProduct fetches a single product by id.
func (r *Repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns), id)
	if err != nil {
		return nil, fmt.Errorf("catalog: get product: %w", err)
	}
	p, err := pgx.CollectOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListLowStock returns products at or below their minimum stock level.
func (r *Repository) ListLowStock(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM products WHERE stock <= min_stock ORDER BY stock ASC, name ASC`, productColumns))
	if err != nil {
		return nil, fmt.Errorf("catalog: list low stock: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListCategories returns every category.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}
