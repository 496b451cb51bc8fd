// Package service implements the storefront use cases on top of the
// repositories and the catalog pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nextshop/storefront/internal/cache"
	"github.com/nextshop/storefront/internal/catalog"
	"github.com/nextshop/storefront/internal/domain"
	"github.com/nextshop/storefront/internal/event"
	"github.com/nextshop/storefront/internal/repository"
	apperrors "github.com/nextshop/storefront/pkg/errors"
)

// CatalogService serves product listings, product details and categories.
type CatalogService struct {
	products   repository.ProductRepository
	reviews    repository.ReviewRepository
	categories repository.CategoryRepository

	builder   *catalog.Builder
	pager     *catalog.Pager
	refiner   *catalog.Refiner
	assembler *catalog.Assembler

	cache  *cache.QueryCache
	events *event.Producer
	logger *slog.Logger
}

// CatalogConfig wires a CatalogService.
type CatalogConfig struct {
	Products   repository.ProductRepository
	Reviews    repository.ReviewRepository
	Categories repository.CategoryRepository
	Builder    *catalog.Builder
	Pager      *catalog.Pager
	Refiner    *catalog.Refiner
	Assembler  *catalog.Assembler
	Cache      *cache.QueryCache
	Events     *event.Producer
	Logger     *slog.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(cfg CatalogConfig) *CatalogService {
	return &CatalogService{
		products:   cfg.Products,
		reviews:    cfg.Reviews,
		categories: cfg.Categories,
		builder:    cfg.Builder,
		pager:      cfg.Pager,
		refiner:    cfg.Refiner,
		assembler:  cfg.Assembler,
		cache:      cfg.Cache,
		events:     cfg.Events,
		logger:     cfg.Logger,
	}
}

// ListProducts runs the full listing pipeline: normalize, check the cache,
// page through the store, refine by search term, assemble and cache.
func (s *CatalogService) ListProducts(ctx context.Context, req catalog.Request) (*catalog.PageResult, error) {
	req = req.Normalize()

	key := cache.Key(req)
	if page, ok := s.cache.Get(ctx, key); ok {
		return page, nil
	}

	docs, nextMark, err := s.pager.Fetch(ctx, s.builder, req)
	if err != nil {
		if errors.Is(err, catalog.ErrBadQuery) {
			return nil, apperrors.InvalidInput(err.Error())
		}
		return nil, fmt.Errorf("fetch product page: %w", err)
	}

	if s.builder.SearchMode() == catalog.SearchModePage && req.Search != "" {
		docs = s.refiner.Refine(docs, req.Search)
	}

	countQuery, err := s.builder.Build(req, catalog.Window{})
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	total, err := s.products.Count(ctx, countQuery.Filters())
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	page := &catalog.PageResult{
		Products:      s.assembler.Assemble(docs),
		Page:          req.Page,
		PageSize:      req.PageSize,
		TotalProducts: total,
		TotalPages:    (total + req.PageSize - 1) / req.PageSize,
	}
	page.HasNext = req.Page < page.TotalPages

	if nextMark != nil {
		token, err := catalog.EncodeCursor(nextMark)
		if err != nil {
			s.logger.WarnContext(ctx, "next cursor encoding failed", slog.String("error", err.Error()))
		} else {
			page.NextCursor = token
		}
	}

	s.cache.Set(ctx, key, page)
	return page, nil
}

// GetProduct returns a product with its reviews, newest first, and records
// the view.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	s.events.ProductViewed(ctx, product)

	return &domain.ProductDetail{Product: *product, Reviews: reviews}, nil
}

// ListCategories returns the distinct categories in the catalog.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}
