package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

// The sentinels wrap the transport ones so RespondError maps them to
// 404 and 409 without the handlers special-casing each repository.
var (
	ErrNotFound  = fmt.Errorf("expenses: %w", httpx.ErrNotFound)
	ErrDuplicate = fmt.Errorf("expenses: already recorded: %w", httpx.ErrDuplicate)
)

// Repository provides PostgreSQL backed persistence for expenses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new expense and returns it with the generated id.
func (r *Repository) Create(ctx context.Context, e Expense) (Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.IncurredAt.IsZero() {
		e.IncurredAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO expenses (id, description, amount, category, incurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Description, e.Amount, e.Category, e.IncurredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Expense{}, ErrDuplicate
		}
		return Expense{}, fmt.Errorf("expenses: create: %w", err)
	}
	return e, nil
}

// ListBetween returns expenses incurred inside [from, to).
func (r *Repository) ListBetween(ctx context.Context, from, to time.Time) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, description, amount, COALESCE(category, ''), incurred_at
		FROM expenses
		WHERE incurred_at >= $1 AND incurred_at < $2
		ORDER BY incurred_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("expenses: list between: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Expense, error) {
		var e Expense
		err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.IncurredAt)
		return e, err
	})
}
