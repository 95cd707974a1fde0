package analytics

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/expenses"
	"github.com/meridian-pos/meridian-pos/internal/insights"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/settings"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type mockRepos struct {
	products     []catalog.Product
	categories   []catalog.Category
	lowStock     []catalog.Product
	saleRows     []sales.Sale
	orders       int
	expenseRows  []expenses.Expense
	store        settings.Settings
	productCalls int
	salesCalls   int
	expenseCalls int
	fetchErr     error
}

func (m *mockRepos) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	m.productCalls++
	return m.products, m.fetchErr
}

func (m *mockRepos) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return m.categories, nil
}

func (m *mockRepos) ListLowStock(ctx context.Context) ([]catalog.Product, error) {
	return m.lowStock, nil
}

func (m *mockRepos) ListBetween(ctx context.Context, from, to time.Time) ([]sales.Sale, error) {
	m.salesCalls++
	return m.saleRows, nil
}

func (m *mockRepos) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	return m.orders, nil
}

func (m *mockRepos) Load(ctx context.Context) (settings.Settings, error) {
	if m.store.Currency == "" {
		return settings.Settings{Currency: settings.DefaultCurrency}, nil
	}
	return m.store, nil
}

type expenseRepoShim struct{ m *mockRepos }

func (s expenseRepoShim) ListBetween(ctx context.Context, from, to time.Time) ([]expenses.Expense, error) {
	s.m.expenseCalls++
	return s.m.expenseRows, nil
}

func cost(v float64) *float64 { return &v }

func fixtureRepo() *mockRepos {
	created := testNow.AddDate(0, 0, -30)
	cat := "c1"
	return &mockRepos{
		products: []catalog.Product{
			{ID: "p1", Name: "Latte", Price: 5, PurchasePrice: cost(2), Stock: 20, MinStock: 5, CategoryID: &cat, CreatedAt: &created},
			{ID: "p2", Name: "Beans", Price: 12, PurchasePrice: cost(7), Stock: 3, MinStock: 5, CategoryID: &cat, CreatedAt: &created},
		},
		categories: []catalog.Category{{ID: "c1", Name: "Coffee"}},
		saleRows: []sales.Sale{
			{ID: "s1", Total: 25, PaymentMethod: "card", CreatedAt: testNow.AddDate(0, 0, -2),
				Items: []sales.SaleItem{{ProductID: "p1", Quantity: 5, Price: 5}}},
		},
		orders: 1,
		expenseRows: []expenses.Expense{
			{ID: "e1", Description: "Rent", Amount: 900, Category: "Facilities", IncurredAt: testNow.AddDate(0, 0, -10)},
			{ID: "e2", Description: "Napkins", Amount: 100, Category: "Supplies", IncurredAt: testNow.AddDate(0, 0, -4)},
		},
		store: settings.Settings{Currency: "EUR"},
	}
}

func newTestService(t *testing.T, repo *mockRepos) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, repo, expenseRepoShim{repo}, repo, cache, insights.DefaultConfig())
	svc.WithNow(func() time.Time { return testNow })
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func testRange() Range {
	return Range{From: testNow.AddDate(0, 0, -30), To: testNow}
}

func TestGetDashboardCaches(t *testing.T) {
	repo := fixtureRepo()
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	dashboard, err := svc.GetDashboard(ctx, testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dashboard.Currency != "EUR" {
		t.Fatalf("expected store currency, got %q", dashboard.Currency)
	}
	if got := dashboard.Metrics.Overall.TotalSales; got != 25 {
		t.Fatalf("expected total sales 25, got %.2f", got)
	}
	if len(dashboard.Metrics.Products) != 2 {
		t.Fatalf("expected both products in output, got %d", len(dashboard.Metrics.Products))
	}
	if repo.productCalls != 1 {
		t.Fatalf("expected 1 product fetch, got %d", repo.productCalls)
	}

	// Second call must hit the cache.
	if _, err := svc.GetDashboard(ctx, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.productCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.productCalls)
	}

	// Bumping the version forces a reload.
	if err := svc.InvalidateCache(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	repo.saleRows[0].Items[0].Quantity = 10
	dashboard, err = svc.GetDashboard(ctx, testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := dashboard.Metrics.Overall.TotalSales; got != 50 {
		t.Fatalf("expected refreshed total 50, got %.2f", got)
	}
	if repo.productCalls != 2 {
		t.Fatalf("expected repo refresh, calls %d", repo.productCalls)
	}
}

func TestGetDashboardExpenseShares(t *testing.T) {
	repo := fixtureRepo()
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	dashboard, err := svc.GetDashboard(context.Background(), testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dashboard.Expenses.Total != 1000 {
		t.Fatalf("expected expense total 1000, got %.2f", dashboard.Expenses.Total)
	}
	var shares float64
	for _, s := range dashboard.Expenses.Shares {
		shares += s.Share
	}
	if shares < 99.999 || shares > 100.001 {
		t.Fatalf("expense shares must sum to 100, got %.4f", shares)
	}
	if dashboard.Expenses.Shares[0].Category != "Facilities" {
		t.Fatalf("expected largest category first, got %q", dashboard.Expenses.Shares[0].Category)
	}
}

func TestGetInsights(t *testing.T) {
	repo := fixtureRepo()
	// Give the window enough volume for the pricing heuristic: p1 margin is
	// 0.6, so push a low-margin, high-demand product instead.
	low := cost(4.5)
	created := testNow.AddDate(0, 0, -20)
	repo.products = append(repo.products, catalog.Product{
		ID: "p3", Name: "Sandwich", Price: 5, PurchasePrice: low, Stock: 40, CreatedAt: &created,
	})
	repo.saleRows = append(repo.saleRows, sales.Sale{
		ID: "s2", CreatedAt: testNow.AddDate(0, 0, -1),
		Items: []sales.SaleItem{{ProductID: "p3", Quantity: 30, Price: 5}},
	})
	repo.orders = 100

	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	bundle, err := svc.GetInsights(context.Background(), testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.TotalOrders != 100 {
		t.Fatalf("expected 100 orders, got %d", bundle.TotalOrders)
	}
	if bundle.DayOfWeek == nil {
		t.Fatalf("expected day-of-week insight")
	}
	if len(bundle.Combos) == 0 {
		t.Fatalf("expected combo suggestions")
	}
	found := false
	for _, op := range bundle.Pricing {
		if op.ProductID == "p3" {
			found = true
			if !op.Estimated {
				t.Fatalf("pricing opportunities must be flagged estimated")
			}
		}
	}
	if !found {
		t.Fatalf("expected pricing opportunity for p3, got %#v", bundle.Pricing)
	}
}

func TestGetExpenseBreakdownCaches(t *testing.T) {
	repo := fixtureRepo()
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.GetExpenseBreakdown(ctx, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetExpenseBreakdown(ctx, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.expenseCalls != 1 {
		t.Fatalf("expected cached breakdown, repo calls %d", repo.expenseCalls)
	}
}

func TestRefreshSnapshotDiscardsStale(t *testing.T) {
	repo := fixtureRepo()
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	committed, err := svc.RefreshSnapshot(ctx, testRange())
	if err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if !committed {
		t.Fatalf("expected first refresh to commit")
	}

	// Simulate a superseded cycle: its token predates the next Begin.
	stale := svc.gens.Begin()
	_ = svc.gens.Begin()
	if svc.snapshots.Commit(stale, Dashboard{From: "stale"}) {
		t.Fatalf("stale generation must not commit")
	}

	snap, ok := svc.LatestSnapshot()
	if !ok {
		t.Fatalf("expected a committed snapshot")
	}
	if snap.Dashboard.From == "stale" {
		t.Fatalf("stale dashboard overwrote newer state")
	}
}
