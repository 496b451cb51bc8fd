// Package http exposes the storefront API over HTTP.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nextshop/storefront/internal/catalog"
	"github.com/nextshop/storefront/internal/domain"
	"github.com/nextshop/storefront/internal/service"
	apperrors "github.com/nextshop/storefront/pkg/errors"
	"github.com/nextshop/storefront/pkg/httputil"
)

// ProductHandler serves product listing and detail requests.
type ProductHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a product handler.
func NewProductHandler(catalogSvc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalogSvc, logger: logger}
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := httputil.PaginatedResponse[domain.Product]{
		Data:       page.Products,
		TotalCount: page.TotalProducts,
		Page:       page.Page,
		PerPage:    page.PageSize,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		NextCursor: page.NextCursor,
	}
	if resp.Data == nil {
		resp.Data = []domain.Product{}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// parseListRequest maps query parameters onto a catalog request. Numeric
// parameters that fail to parse are invalid input, not silent defaults.
func parseListRequest(r *http.Request) (catalog.Request, error) {
	q := r.URL.Query()
	req := catalog.Request{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   q.Get("sort_by"),
		Cursor:   q.Get("cursor"),
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return catalog.Request{}, apperrors.InvalidInput("page must be a number")
		}
		req.Page = page
	}

	// per_page is the documented name; limit survives as an alias.
	rawSize := q.Get("per_page")
	if rawSize == "" {
		rawSize = q.Get("limit")
	}
	if rawSize != "" {
		size, err := strconv.Atoi(rawSize)
		if err != nil {
			return catalog.Request{}, apperrors.InvalidInput("per_page must be a number")
		}
		req.PageSize = size
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		req.Desc = true
	default:
		return catalog.Request{}, apperrors.InvalidInput("order must be asc or desc")
	}

	return req, nil
}
