package catalog

import (
	"github.com/nextshop/storefront/internal/domain"
)

// PageResult is one assembled page of the product listing plus its
// pagination metadata.
type PageResult struct {
	Products      []domain.Product `json:"products"`
	Page          int              `json:"page"`
	PageSize      int              `json:"page_size"`
	TotalProducts int              `json:"total_products"`
	TotalPages    int              `json:"total_pages"`
	HasNext       bool             `json:"has_next"`
	NextCursor    string           `json:"next_cursor,omitempty"`
}
