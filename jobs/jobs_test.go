package jobs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/analytics"
	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/expenses"
	"github.com/meridian-pos/meridian-pos/internal/insights"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/settings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWarmer struct {
	refreshed analytics.Range
	insights  analytics.Range
	breakdown analytics.Range
	err       error
}

func (f *fakeWarmer) RefreshSnapshot(_ context.Context, r analytics.Range) (bool, error) {
	f.refreshed = r
	return true, f.err
}

func (f *fakeWarmer) GetInsights(_ context.Context, r analytics.Range) (analytics.InsightBundle, error) {
	f.insights = r
	return analytics.InsightBundle{}, f.err
}

func (f *fakeWarmer) GetExpenseBreakdown(_ context.Context, r analytics.Range) (expenses.Breakdown, error) {
	f.breakdown = r
	return expenses.Breakdown{}, f.err
}

func TestWarmupJobUsesTrailingWindow(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewWarmupJob(warmer, testLogger(), observability.NewMetrics())
	job.Now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}

	task, err := NewWarmupTask(WarmupPayload{WindowDays: 7})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	wantTo := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	require.Equal(t, wantTo, warmer.refreshed.To)
	require.Equal(t, wantTo.AddDate(0, 0, -7), warmer.refreshed.From)
	require.Equal(t, warmer.refreshed, warmer.insights)
	require.Equal(t, warmer.refreshed, warmer.breakdown)
}

func TestWarmupJobDefaultsWindow(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewWarmupJob(warmer, testLogger(), observability.NewMetrics())

	task, err := NewWarmupTask(WarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	days := int(warmer.refreshed.To.Sub(warmer.refreshed.From).Hours() / 24)
	require.Equal(t, defaultWarmupWindowDays, days)
}

func TestWarmupJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewWarmupJob(&fakeWarmer{}, testLogger(), nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskAnalyticsWarmup, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type stubCatalogRepo struct{}

func (stubCatalogRepo) ListProducts(context.Context) ([]catalog.Product, error) {
	price := 4.0
	cost := 1.5
	return []catalog.Product{{ID: "p1", Name: "Latte", Price: price, PurchasePrice: &cost, Stock: 10}}, nil
}

func (stubCatalogRepo) ListCategories(context.Context) ([]catalog.Category, error) {
	return nil, nil
}

func (stubCatalogRepo) ListLowStock(context.Context) ([]catalog.Product, error) {
	return nil, nil
}

type stubSalesRepo struct{}

func (stubSalesRepo) ListBetween(context.Context, time.Time, time.Time) ([]sales.Sale, error) {
	return nil, nil
}

func (stubSalesRepo) CountBetween(context.Context, time.Time, time.Time) (int, error) {
	return 0, nil
}

type stubExpenseRepo struct{}

func (stubExpenseRepo) ListBetween(context.Context, time.Time, time.Time) ([]expenses.Expense, error) {
	return nil, nil
}

type stubSettingsRepo struct{}

func (stubSettingsRepo) Load(context.Context) (settings.Settings, error) {
	return settings.Settings{Currency: "USD"}, nil
}

func TestWarmupJobPopulatesCacheAndSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := analytics.NewService(stubCatalogRepo{}, stubSalesRepo{}, stubExpenseRepo{}, stubSettingsRepo{},
		analytics.NewCache(client, time.Minute), insights.DefaultConfig())

	job := NewWarmupJob(svc, testLogger(), observability.NewMetrics())
	task, err := NewWarmupTask(WarmupPayload{WindowDays: 7})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	snapshot, ok := svc.LatestSnapshot()
	require.True(t, ok)
	require.Equal(t, "USD", snapshot.Dashboard.Currency)
	require.NotEmpty(t, mr.Keys())
}

type fakeLowStockLister struct {
	products []catalog.Product
	err      error
}

func (f *fakeLowStockLister) ListLowStock(context.Context) ([]catalog.Product, error) {
	return f.products, f.err
}

func TestLowStockScanJobLogsFlaggedProducts(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	lister := &fakeLowStockLister{products: []catalog.Product{
		{ID: "p1", Name: "Espresso Beans", Stock: 2, MinStock: 10},
	}}

	job := NewLowStockScanJob(lister, logger, observability.NewMetrics())
	task, err := NewLowStockScanTask()
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	out := buf.String()
	require.Contains(t, out, "product low on stock")
	require.Contains(t, out, "Espresso Beans")
	require.Contains(t, out, "flagged=1")
}

type fakeDashboardSource struct {
	dashboard analytics.Dashboard
	err       error
}

func (f *fakeDashboardSource) GetDashboard(context.Context, analytics.Range) (analytics.Dashboard, error) {
	return f.dashboard, f.err
}

func TestExportSnapshotJobWritesCSV(t *testing.T) {
	dir := t.TempDir()
	source := &fakeDashboardSource{dashboard: analytics.Dashboard{
		From:     "2025-06-01",
		To:       "2025-06-16",
		Currency: "USD",
	}}

	job := NewExportSnapshotJob(source, dir, testLogger(), observability.NewMetrics())
	task, err := NewExportSnapshotTask(ExportSnapshotPayload{WindowDays: 15})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	name := entries[0].Name()
	require.True(t, strings.HasPrefix(name, "dashboard-"))
	require.True(t, strings.HasSuffix(name, "-2025-06-01-2025-06-16.csv"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Contains(t, string(data), "Total Sales")
}

func TestExportSnapshotJobUniqueFilenames(t *testing.T) {
	dir := t.TempDir()
	source := &fakeDashboardSource{dashboard: analytics.Dashboard{From: "2025-06-01", To: "2025-06-16"}}
	job := NewExportSnapshotJob(source, dir, testLogger(), nil)

	task, err := NewExportSnapshotTask(ExportSnapshotPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, job.Handle(context.Background(), task))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
