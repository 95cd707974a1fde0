package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/observability"
)

// LowStockLister lists products at or below their minimum stock level.
type LowStockLister interface {
	ListLowStock(ctx context.Context) ([]catalog.Product, error)
}

// LowStockScanJob flags products that need reordering. The scan only logs
// today; purchasing integrations can hang off the same task later.
type LowStockScanJob struct {
	Catalog LowStockLister
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewLowStockScanJob constructs the low-stock scan job.
func NewLowStockScanJob(catalogRepo LowStockLister, logger *slog.Logger, metrics *observability.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Catalog: catalogRepo, Logger: logger, Metrics: metrics}
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// Handle processes TaskInventoryLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	products, err := j.Catalog.ListLowStock(ctx)
	if err != nil {
		j.logger().Error("low stock scan", slog.Any("error", err))
		j.Metrics.RecordJob(TaskInventoryLowStockScan, err)
		return err
	}

	for _, p := range products {
		j.logger().Warn("product low on stock",
			slog.String("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int("stock", p.Stock),
			slog.Int("min_stock", p.MinStock))
	}
	j.logger().Info("completed low stock scan", slog.Int("flagged", len(products)))
	j.Metrics.RecordJob(TaskInventoryLowStockScan, nil)
	return nil
}
