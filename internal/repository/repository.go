// Package repository defines the persistence interfaces implemented by the
// postgres subpackage.
package repository

import (
	"context"

	"github.com/nextshop/storefront/internal/catalog"
	"github.com/nextshop/storefront/internal/domain"
)

// ProductRepository is the product store. It satisfies catalog.Store so
// listing queries run through the constraint pipeline, and adds direct
// lookups used by the detail endpoint and the seeder.
type ProductRepository interface {
	catalog.Store

	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, p *domain.Product) error
}

// ReviewRepository persists reviews and keeps the product rating aggregate
// consistent with them.
type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
	Get(ctx context.Context, productID, reviewID string) (*domain.Review, error)

	// Add inserts the review and folds its rating into the product
	// aggregate in one transaction.
	Add(ctx context.Context, review *domain.Review) error
	// Update replaces rating and comment and re-applies the rating delta
	// to the aggregate in one transaction.
	Update(ctx context.Context, review *domain.Review) error
	// Delete removes the review and subtracts its rating from the
	// aggregate in one transaction.
	Delete(ctx context.Context, productID, reviewID string) error
}

// CategoryRepository lists the distinct categories present in the catalog.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}
