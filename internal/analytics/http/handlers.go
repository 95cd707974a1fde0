// Package analytichttp serves the analytics dashboards over HTTP: JSON for
// the UI, CSV attachments for report downloads.
package analytichttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-pos/meridian-pos/internal/analytics"
	"github.com/meridian-pos/meridian-pos/internal/analytics/export"
	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/expenses"
	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

const (
	requestTimeout    = 10 * time.Second
	defaultWindowDays = 30
)

// Service defines the dashboard data contract used by the handler.
type Service interface {
	GetDashboard(ctx context.Context, r analytics.Range) (analytics.Dashboard, error)
	GetInsights(ctx context.Context, r analytics.Range) (analytics.InsightBundle, error)
	GetExpenseBreakdown(ctx context.Context, r analytics.Range) (expenses.Breakdown, error)
	ListLowStock(ctx context.Context) ([]catalog.Product, error)
}

// Handler coordinates HTTP requests for the analytics endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Service
	validate *validator.Validate
	builds   singleflight.Group
	now      func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type rangeQuery struct {
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
}

// parseRange resolves the window from query parameters, defaulting to the
// trailing 30 days. To is exclusive and rounds up to the next midnight so a
// date-only token covers its whole day.
func (h *Handler) parseRange(r *http.Request) (analytics.Range, error) {
	q := rangeQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := h.validate.Struct(q); err != nil {
		return analytics.Range{}, fmt.Errorf("%w: invalid date filter: %v", httpx.ErrValidation, err)
	}

	now := h.now().UTC()
	to := now.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	if q.To != "" {
		parsed, _ := time.ParseInLocation("2006-01-02", q.To, time.UTC)
		to = parsed.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -defaultWindowDays)
	if q.From != "" {
		from, _ = time.ParseInLocation("2006-01-02", q.From, time.UTC)
	}
	if from.After(to) {
		return analytics.Range{}, fmt.Errorf("%w: from must not be after to", httpx.ErrValidation)
	}
	return analytics.Range{From: from, To: to}, nil
}

// loadDashboard collapses concurrent builds of the same window into one
// service call.
func (h *Handler) loadDashboard(ctx context.Context, window analytics.Range) (analytics.Dashboard, error) {
	from, to := window.Tokens()
	value, err, _ := h.builds.Do("dashboard:"+from+":"+to, func() (interface{}, error) {
		return h.service.GetDashboard(ctx, window)
	})
	if err != nil {
		return analytics.Dashboard{}, err
	}
	return value.(analytics.Dashboard), nil
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	window, err := h.parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dashboard, err := h.loadDashboard(ctx, window)
	if err != nil {
		h.logger.Error("load dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	window, err := h.parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	bundle, err := h.service.GetInsights(ctx, window)
	if err != nil {
		h.logger.Error("load insights", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bundle)
}

func (h *Handler) handleExpenses(w http.ResponseWriter, r *http.Request) {
	window, err := h.parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	breakdown, err := h.service.GetExpenseBreakdown(ctx, window)
	if err != nil {
		h.logger.Error("load expense breakdown", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := h.service.ListLowStock(ctx)
	if err != nil {
		h.logger.Error("load low stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *Handler) handleProductsCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "product-performance", func(w http.ResponseWriter, d analytics.Dashboard) error {
		return export.WriteProductPerformanceCSV(w, d.Metrics.Products)
	})
}

func (h *Handler) handleCategoriesCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "category-performance", func(w http.ResponseWriter, d analytics.Dashboard) error {
		return export.WriteCategoryPerformanceCSV(w, d.Metrics.Categories)
	})
}

func (h *Handler) handleDashboardCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, "dashboard", func(w http.ResponseWriter, d analytics.Dashboard) error {
		return export.WriteDashboardCSV(w, d)
	})
}

func (h *Handler) serveCSV(w http.ResponseWriter, r *http.Request, report string, write func(http.ResponseWriter, analytics.Dashboard) error) {
	window, err := h.parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dashboard, err := h.loadDashboard(ctx, window)
	if err != nil {
		h.logger.Error("load export", slog.String("report", report), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	from, to := window.Tokens()
	httpx.CSVAttachment(w, export.Filename(report, from, to))
	if err := write(w, dashboard); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.Error("write export", slog.String("report", report), slog.Any("error", err))
	}
}
