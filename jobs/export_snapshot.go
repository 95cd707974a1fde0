package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/analytics"
	"github.com/meridian-pos/meridian-pos/internal/analytics/export"
	"github.com/meridian-pos/meridian-pos/internal/observability"
)

// DashboardSource provides the dashboard payload to export.
type DashboardSource interface {
	GetDashboard(ctx context.Context, r analytics.Range) (analytics.Dashboard, error)
}

// ExportSnapshotJob writes the current dashboard as a CSV file into the
// export directory. File names carry a short random suffix so repeated
// runs for the same window never overwrite each other.
type ExportSnapshotJob struct {
	Analytics DashboardSource
	Dir       string
	Logger    *slog.Logger
	Metrics   *observability.Metrics

	Now func() time.Time
}

// NewExportSnapshotJob constructs the export snapshot job.
func NewExportSnapshotJob(analyticsService DashboardSource, dir string, logger *slog.Logger, metrics *observability.Metrics) *ExportSnapshotJob {
	return &ExportSnapshotJob{Analytics: analyticsService, Dir: dir, Logger: logger, Metrics: metrics, Now: time.Now}
}

func (j *ExportSnapshotJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ExportSnapshotJob) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Handle processes TaskAnalyticsExportSnapshot tasks.
func (j *ExportSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ExportSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = defaultWarmupWindowDays
	}

	window := trailingWindow(j.now(), payload.WindowDays)
	dashboard, err := j.Analytics.GetDashboard(ctx, window)
	if err != nil {
		j.logger().Error("load dashboard for export", slog.Any("error", err))
		j.Metrics.RecordJob(TaskAnalyticsExportSnapshot, err)
		return err
	}

	path, err := j.writeSnapshot(dashboard)
	if err != nil {
		j.logger().Error("write snapshot", slog.Any("error", err))
		j.Metrics.RecordJob(TaskAnalyticsExportSnapshot, err)
		return err
	}

	j.logger().Info("exported dashboard snapshot",
		slog.String("path", path),
		slog.String("from", dashboard.From),
		slog.String("to", dashboard.To))
	j.Metrics.RecordJob(TaskAnalyticsExportSnapshot, nil)
	return nil
}

func (j *ExportSnapshotJob) writeSnapshot(dashboard analytics.Dashboard) (string, error) {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return "", err
	}
	name := export.Filename("dashboard-"+uuid.NewString()[:8], dashboard.From, dashboard.To)
	path := filepath.Join(j.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := export.WriteDashboardCSV(f, dashboard); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
