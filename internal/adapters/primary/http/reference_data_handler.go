package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
)

// ReferenceDataHandler serves catalog datasets exactly as stored.
type ReferenceDataHandler struct {
	service      ports.ReferenceDataService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewReferenceDataHandler creates a new reference data handler
func NewReferenceDataHandler(
	service ports.ReferenceDataService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ReferenceDataHandler {
	return &ReferenceDataHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "reference_data"),
	}
}

// RegisterRoutes registers the /api/data/{dataset} route, which covers
// /api/data/customer-types, /industries, /teams and /acv-ranges.
func (h *ReferenceDataHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{dataset}", h.HandleGetDataset)
}

// HandleGetDataset handles GET /api/data/{dataset}
func (h *ReferenceDataHandler) HandleGetDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")

	body, err := h.service.Raw(r.Context(), name)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteRawJSON(w, http.StatusOK, body)
}

// HandleListDatasets handles GET /api/datasets
func (h *ReferenceDataHandler) HandleListDatasets(w http.ResponseWriter, r *http.Request) {
	WriteList(w, h.service.Datasets())
}
