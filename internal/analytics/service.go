// Package analytics coordinates the fetch-and-aggregate cycle: repositories
// are queried in parallel, the pure reduction core runs over the fetched
// rows, and results are cached in Redis under versioned keys.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/expenses"
	"github.com/meridian-pos/meridian-pos/internal/insights"
	"github.com/meridian-pos/meridian-pos/internal/metrics"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/settings"
)

// CatalogRepository exposes the catalog reads the service depends on.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListLowStock(ctx context.Context) ([]catalog.Product, error)
}

// SalesRepository exposes the sales reads the service depends on.
type SalesRepository interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]sales.Sale, error)
	CountBetween(ctx context.Context, from, to time.Time) (int, error)
}

// ExpenseRepository exposes the expense reads the service depends on.
type ExpenseRepository interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]expenses.Expense, error)
}

// SettingsRepository resolves store settings.
type SettingsRepository interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// Range is a half-open [From, To) reporting window.
type Range struct {
	From time.Time
	To   time.Time
}

// Tokens returns the date tokens used in cache keys and export filenames.
func (r Range) Tokens() (string, string) {
	return r.From.Format("2006-01-02"), r.To.Format("2006-01-02")
}

// InsightBundle groups the heuristic outputs for one window.
type InsightBundle struct {
	DayOfWeek   *insights.DayOfWeekInsight    `json:"day_of_week,omitempty"`
	Combos      []insights.ComboSuggestion    `json:"combos,omitempty"`
	Pricing     []insights.PricingOpportunity `json:"pricing,omitempty"`
	TotalOrders int                           `json:"total_orders"`
}

// Dashboard is the full analytics payload for one window.
type Dashboard struct {
	From     string             `json:"from"`
	To       string             `json:"to"`
	Currency string             `json:"currency"`
	Metrics  metrics.Result     `json:"metrics"`
	Expenses expenses.Breakdown `json:"expenses"`
}

// Service coordinates repository fetches, the pure aggregation core, and
// the cache layer.
type Service struct {
	catalog   CatalogRepository
	sales     SalesRepository
	expenses  ExpenseRepository
	settings  SettingsRepository
	cache     *Cache
	heuristic insights.Config
	gens      *Generations
	snapshots *Snapshots
	now       func() time.Time
}

// NewService wires the repositories with a Cache helper.
func NewService(catalogRepo CatalogRepository, salesRepo SalesRepository, expenseRepo ExpenseRepository, settingsRepo SettingsRepository, cache *Cache, heuristic insights.Config) *Service {
	gens := &Generations{}
	return &Service{
		catalog:   catalogRepo,
		sales:     salesRepo,
		expenses:  expenseRepo,
		settings:  settingsRepo,
		cache:     cache,
		heuristic: heuristic,
		gens:      gens,
		snapshots: NewSnapshots(gens),
		now:       time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

type fetched struct {
	products    []catalog.Product
	categories  []catalog.Category
	saleRows    []sales.Sale
	expenseRows []expenses.Expense
	orders      int
	store       settings.Settings
}

// fetchWindow pulls all inputs for a window in parallel. The aggregation
// itself never interleaves with I/O: it runs only after every fetch landed.
func (s *Service) fetchWindow(ctx context.Context, r Range) (fetched, error) {
	var data fetched
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.products, err = s.catalog.ListProducts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.categories, err = s.catalog.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.saleRows, err = s.sales.ListBetween(ctx, r.From, r.To)
		return err
	})
	g.Go(func() error {
		var err error
		data.orders, err = s.sales.CountBetween(ctx, r.From, r.To)
		return err
	})
	g.Go(func() error {
		var err error
		data.expenseRows, err = s.expenses.ListBetween(ctx, r.From, r.To)
		return err
	})
	g.Go(func() error {
		var err error
		data.store, err = s.settings.Load(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fetched{}, fmt.Errorf("analytics: fetch window: %w", err)
	}
	return data, nil
}

func (s *Service) buildDashboard(ctx context.Context, r Range) (Dashboard, error) {
	data, err := s.fetchWindow(ctx, r)
	if err != nil {
		return Dashboard{}, err
	}
	from, to := r.Tokens()
	return Dashboard{
		From:     from,
		To:       to,
		Currency: data.store.Currency,
		Metrics:  metrics.Compute(data.saleRows, data.products, data.categories, metrics.Options{Now: s.now()}),
		Expenses: expenses.ComputeBreakdown(data.expenseRows),
	}, nil
}

// GetDashboard resolves the dashboard for a window using cache-aware lookups.
func (s *Service) GetDashboard(ctx context.Context, r Range) (Dashboard, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.buildDashboard(ctx, r)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Dashboard{}, err
		}
		return value.(Dashboard), nil
	}
	from, to := r.Tokens()
	key, err := s.cache.BuildKey(ctx, keyDashboard(from, to))
	if err != nil {
		return Dashboard{}, err
	}
	var dashboard Dashboard
	if err := s.cache.FetchJSON(ctx, key, &dashboard, loader); err != nil {
		return Dashboard{}, err
	}
	return dashboard, nil
}

// GetInsights resolves the heuristic bundle for a window.
func (s *Service) GetInsights(ctx context.Context, r Range) (InsightBundle, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		data, err := s.fetchWindow(ctx, r)
		if err != nil {
			return nil, err
		}
		result := metrics.Compute(data.saleRows, data.products, data.categories, metrics.Options{Now: s.now()})

		costs := make(map[string]float64, len(result.Products))
		for _, row := range result.Products {
			costs[row.ProductID] = row.Cost
		}
		bundle := InsightBundle{TotalOrders: data.orders}
		if insight, ok := insights.BestWorstDay(insights.DailiesFromSales(data.saleRows, costs)); ok {
			bundle.DayOfWeek = &insight
		}
		bundle.Combos = insights.SuggestCombos(result.Products, s.heuristic)
		bundle.Pricing = insights.PricingOpportunities(result.Products, data.orders, s.heuristic)
		return bundle, nil
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return InsightBundle{}, err
		}
		return value.(InsightBundle), nil
	}
	from, to := r.Tokens()
	key, err := s.cache.BuildKey(ctx, keyInsights(from, to))
	if err != nil {
		return InsightBundle{}, err
	}
	var bundle InsightBundle
	if err := s.cache.FetchJSON(ctx, key, &bundle, loader); err != nil {
		return InsightBundle{}, err
	}
	return bundle, nil
}

// GetExpenseBreakdown resolves the per-category expense shares for a window.
func (s *Service) GetExpenseBreakdown(ctx context.Context, r Range) (expenses.Breakdown, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.expenses.ListBetween(ctx, r.From, r.To)
		if err != nil {
			return nil, err
		}
		return expenses.ComputeBreakdown(rows), nil
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return expenses.Breakdown{}, err
		}
		return value.(expenses.Breakdown), nil
	}
	from, to := r.Tokens()
	key, err := s.cache.BuildKey(ctx, keyExpenses(from, to))
	if err != nil {
		return expenses.Breakdown{}, err
	}
	var breakdown expenses.Breakdown
	if err := s.cache.FetchJSON(ctx, key, &breakdown, loader); err != nil {
		return expenses.Breakdown{}, err
	}
	return breakdown, nil
}

// ListLowStock surfaces products at or below their minimum stock level.
func (s *Service) ListLowStock(ctx context.Context) ([]catalog.Product, error) {
	return s.catalog.ListLowStock(ctx)
}

// RefreshSnapshot runs a full fetch-and-aggregate cycle under a fresh
// generation token and commits the result unless a newer cycle started in
// the meantime. Stale results are dropped, never merged.
func (s *Service) RefreshSnapshot(ctx context.Context, r Range) (bool, error) {
	token := s.gens.Begin()
	dashboard, err := s.buildDashboard(ctx, r)
	if err != nil {
		return false, err
	}
	return s.snapshots.Commit(token, dashboard), nil
}

// LatestSnapshot returns the newest committed dashboard snapshot.
func (s *Service) LatestSnapshot() (Snapshot, bool) {
	return s.snapshots.Latest()
}

// InvalidateCache bumps the cache version after new sales or expenses land.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
