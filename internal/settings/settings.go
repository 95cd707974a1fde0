// Package settings loads store-level configuration from the settings table
// and exposes it as an explicitly injected object. Nothing in this module is
// a process-wide singleton: components that format money receive a Settings
// value through their constructor.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultCurrency applies when no currency row exists.
const DefaultCurrency = "USD"

const currencyKey = "currency"

// Settings carries the resolved store configuration.
type Settings struct {
	Currency string
}

// Repository reads settings rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Load resolves the current settings, falling back to defaults for missing
// rows rather than failing the caller.
func (r *Repository) Load(ctx context.Context) (Settings, error) {
	s := Settings{Currency: DefaultCurrency}
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM settings WHERE key = $1`, currencyKey).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, nil
		}
		return s, fmt.Errorf("settings: load: %w", err)
	}
	if value != "" {
		s.Currency = value
	}
	return s, nil
}
