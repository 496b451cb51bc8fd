package http

import (
	"log/slog"
	"net/http"

	"github.com/nextshop/storefront/internal/service"
	"github.com/nextshop/storefront/pkg/httputil"
)

// CategoryHandler serves the category listing.
type CategoryHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(catalogSvc *service.CatalogService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalogSvc, logger: logger}
}

// List handles GET /api/v1/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}
