// Package jobs defines the background tasks processed by the Asynq worker.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskAnalyticsWarmup precomputes the dashboard for the standard window.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskInventoryLowStockScan scans the catalog for products at or below
	// their minimum stock level.
	TaskInventoryLowStockScan = "inventory:lowstock_scan"
	// TaskAnalyticsExportSnapshot writes a CSV snapshot of the current
	// dashboard to the export directory.
	TaskAnalyticsExportSnapshot = "analytics:export_snapshot"
)

// WarmupPayload configures the analytics warmup window.
type WarmupPayload struct {
	WindowDays int `json:"window_days"`
}

// NewWarmupTask constructs an analytics warmup task.
func NewWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}

// LowStockScanPayload is empty today but kept for forward compatibility.
type LowStockScanPayload struct{}

// NewLowStockScanTask constructs a low-stock scan task.
func NewLowStockScanTask() (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryLowStockScan, data), nil
}

// ExportSnapshotPayload configures the CSV snapshot window.
type ExportSnapshotPayload struct {
	WindowDays int `json:"window_days"`
}

// NewExportSnapshotTask constructs an export snapshot task.
func NewExportSnapshotTask(payload ExportSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsExportSnapshot, data), nil
}
