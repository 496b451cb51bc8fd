// Package domain holds the storefront entities shared across the
// repository, service and handler layers.
package domain

import (
	"time"
)

// Product represents a product in the catalog. Rating fields are
// denormalized aggregates maintained transactionally by review writes.
type Product struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Stock         int       `json:"stock"`
	Images        []string  `json:"images,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	RatingSum     int64     `json:"-"`
	RatingCount   int       `json:"rating_count"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductDetail is a product together with its reviews, as returned by the
// detail endpoint.
type ProductDetail struct {
	Product
	Reviews []Review `json:"reviews"`
}

// ApplyRating folds a new rating into the denormalized aggregate.
func (p *Product) ApplyRating(rating int) {
	p.RatingSum += int64(rating)
	p.RatingCount++
	p.AverageRating = float64(p.RatingSum) / float64(p.RatingCount)
}
