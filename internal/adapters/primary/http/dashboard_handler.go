package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/primary/validation"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
)

const maxRankingLimit = 100

// DashboardHandler serves the computed chart and table views of a dataset.
type DashboardHandler struct {
	service      ports.DashboardService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service ports.DashboardService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "dashboard"),
	}
}

// RegisterRoutes registers the view routes below /api/data. They are flat
// rather than a sub-router so /api/data/{dataset} stays free for the raw
// reference data.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{dataset}/bar-chart", h.HandleBarChart)
	r.Get("/{dataset}/donut", h.HandleDonut)
	r.Get("/{dataset}/table", h.HandleTable)
	r.Get("/{dataset}/summary", h.HandleSummary)
	r.Get("/{dataset}/ranking", h.HandleRanking)
}

// HandleBarChart handles GET /api/data/{dataset}/bar-chart
func (h *DashboardHandler) HandleBarChart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.BarChart(r.Context(), chi.URLParam(r, "dataset"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// HandleDonut handles GET /api/data/{dataset}/donut
func (h *DashboardHandler) HandleDonut(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Donut(r.Context(), chi.URLParam(r, "dataset"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// HandleTable handles GET /api/data/{dataset}/table?categories=A,B
func (h *DashboardHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	categories, err := validation.ParseCategories(r, "categories")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	view, err := h.service.Table(r.Context(), chi.URLParam(r, "dataset"), categories)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// HandleSummary handles GET /api/data/{dataset}/summary
func (h *DashboardHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Summary(r.Context(), chi.URLParam(r, "dataset"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// HandleRanking handles GET /api/data/{dataset}/ranking?limit=5
func (h *DashboardHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	limit, err := validation.ParseLimit(r, "limit", maxRankingLimit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	view, err := h.service.Ranking(r.Context(), chi.URLParam(r, "dataset"), limit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, view)
}
