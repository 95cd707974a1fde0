package expenses

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

// Invalidator is notified after a write so cached analytics refresh.
type Invalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Handler manages the expense endpoints.
type Handler struct {
	logger     *slog.Logger
	repo       *Repository
	validate   *validator.Validate
	invalidate Invalidator
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, invalidate Invalidator) *Handler {
	return &Handler{
		logger:     logger,
		repo:       repo,
		validate:   validator.New(),
		invalidate: invalidate,
	}
}

// MountRoutes registers expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createExpense)
	r.Get("/", h.listExpenses)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	expense := Expense{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
	}
	if req.IncurredAt != "" {
		incurred, _ := time.ParseInLocation("2006-01-02", req.IncurredAt, time.UTC)
		expense.IncurredAt = incurred
	}

	created, err := h.repo.Create(r.Context(), expense)
	if err != nil {
		if !errors.Is(err, ErrDuplicate) {
			h.logger.Error("create expense", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	if h.invalidate != nil {
		if err := h.invalidate.InvalidateCache(r.Context()); err != nil {
			h.logger.Warn("cache invalidation failed", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	to := now
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "to must be YYYY-MM-DD")
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	rows, err := h.repo.ListBetween(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"expenses":  rows,
		"breakdown": ComputeBreakdown(rows),
	})
}
