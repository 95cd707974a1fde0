package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

// Enqueuer submits background tasks to the queue. *Client satisfies it.
type Enqueuer interface {
	EnqueueWarmup(ctx context.Context, payload WarmupPayload) (*asynq.TaskInfo, error)
	EnqueueLowStockScan(ctx context.Context) (*asynq.TaskInfo, error)
	EnqueueExportSnapshot(ctx context.Context, payload ExportSnapshotPayload) (*asynq.TaskInfo, error)
}

var _ Enqueuer = (*Client)(nil)

// Handler exposes on-demand job triggers so operators do not have to wait
// for the cron schedule.
type Handler struct {
	logger   *slog.Logger
	enqueuer Enqueuer
}

// NewHandler constructs an HTTP handler for job triggers.
func NewHandler(logger *slog.Logger, enqueuer Enqueuer) *Handler {
	return &Handler{logger: logger, enqueuer: enqueuer}
}

// MountRoutes attaches the job trigger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/warmup", h.triggerWarmup)
	r.Post("/lowstock-scan", h.triggerLowStockScan)
	r.Post("/export-snapshot", h.triggerExportSnapshot)
}

type enqueueResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) triggerWarmup(w http.ResponseWriter, r *http.Request) {
	var payload WarmupPayload
	if err := decodeOptional(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	info, err := h.enqueuer.EnqueueWarmup(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue warmup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	respondEnqueued(w, info)
}

func (h *Handler) triggerLowStockScan(w http.ResponseWriter, r *http.Request) {
	info, err := h.enqueuer.EnqueueLowStockScan(r.Context())
	if err != nil {
		h.logger.Error("enqueue low stock scan", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	respondEnqueued(w, info)
}

func (h *Handler) triggerExportSnapshot(w http.ResponseWriter, r *http.Request) {
	var payload ExportSnapshotPayload
	if err := decodeOptional(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	info, err := h.enqueuer.EnqueueExportSnapshot(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue export snapshot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	respondEnqueued(w, info)
}

func respondEnqueued(w http.ResponseWriter, info *asynq.TaskInfo) {
	httpx.JSON(w, http.StatusAccepted, enqueueResponse{TaskID: info.ID, Queue: info.Queue})
}

// decodeOptional tolerates an empty request body: triggers work with
// defaults when no payload is sent.
func decodeOptional(r *http.Request, target any) error {
	err := httpx.DecodeJSON(r, target)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
