package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/analytics"
	"github.com/meridian-pos/meridian-pos/internal/expenses"
	"github.com/meridian-pos/meridian-pos/internal/observability"
)

// defaultWarmupWindowDays covers the trailing month when the payload does
// not specify a window.
const defaultWarmupWindowDays = 30

// Warmer is the slice of the analytics service the warmup job needs.
type Warmer interface {
	RefreshSnapshot(ctx context.Context, r analytics.Range) (bool, error)
	GetInsights(ctx context.Context, r analytics.Range) (analytics.InsightBundle, error)
	GetExpenseBreakdown(ctx context.Context, r analytics.Range) (expenses.Breakdown, error)
}

// WarmupJob refreshes the dashboard snapshot and primes the insight and
// expense caches so the first morning request is served warm.
type WarmupJob struct {
	Analytics Warmer
	Logger    *slog.Logger
	Metrics   *observability.Metrics

	Now func() time.Time
}

// NewWarmupJob constructs the warmup job.
func NewWarmupJob(analyticsService Warmer, logger *slog.Logger, metrics *observability.Metrics) *WarmupJob {
	return &WarmupJob{Analytics: analyticsService, Logger: logger, Metrics: metrics, Now: time.Now}
}

func (j *WarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *WarmupJob) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Handle processes TaskAnalyticsWarmup tasks.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload WarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = defaultWarmupWindowDays
	}

	window := trailingWindow(j.now(), payload.WindowDays)
	logger := j.logger().With(slog.Int("window_days", payload.WindowDays))
	logger.Info("starting analytics warmup")

	started := time.Now()
	committed, err := j.Analytics.RefreshSnapshot(ctx, window)
	if err != nil {
		logger.Error("refresh snapshot", slog.Any("error", err))
		j.Metrics.RecordJob(TaskAnalyticsWarmup, err)
		return err
	}
	if committed {
		j.Metrics.RecordRefresh()
	}
	if _, err := j.Analytics.GetInsights(ctx, window); err != nil {
		logger.Error("warm insights", slog.Any("error", err))
		j.Metrics.RecordJob(TaskAnalyticsWarmup, err)
		return err
	}
	if _, err := j.Analytics.GetExpenseBreakdown(ctx, window); err != nil {
		logger.Error("warm expense breakdown", slog.Any("error", err))
		j.Metrics.RecordJob(TaskAnalyticsWarmup, err)
		return err
	}

	logger.Info("completed analytics warmup",
		slog.Bool("snapshot_committed", committed),
		slog.Duration("duration", time.Since(started)))
	j.Metrics.RecordJob(TaskAnalyticsWarmup, nil)
	return nil
}

// trailingWindow returns the half-open window ending at the start of
// tomorrow, so today's sales are always included.
func trailingWindow(now time.Time, days int) analytics.Range {
	to := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	return analytics.Range{From: to.AddDate(0, 0, -days), To: to}
}
