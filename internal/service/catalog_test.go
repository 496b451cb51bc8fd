package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextshop/storefront/internal/cache"
	"github.com/nextshop/storefront/internal/catalog"
	"github.com/nextshop/storefront/internal/domain"
	"github.com/nextshop/storefront/internal/event"
	apperrors "github.com/nextshop/storefront/pkg/errors"
)

func catalogFixture() []domain.Product {
	return []domain.Product{
		{ID: "p1", Title: "USB Hub", Category: "electronics", Price: 10},
		{ID: "p2", Title: "Mechanical Keyboard", Category: "electronics", Price: 30},
		{ID: "p3", Title: "Wireless Mouse", Category: "electronics", Price: 20},
		{ID: "p4", Title: "Cable Tie Pack", Category: "electronics", Price: 5},
		{ID: "p5", Title: "Phone Stand", Category: "electronics", Price: 15},
		{ID: "p6", Title: "Garden Hose", Category: "outdoors", Price: 25},
	}
}

type catalogOption func(*CatalogConfig)

func withCache(c *cache.QueryCache) catalogOption {
	return func(cfg *CatalogConfig) { cfg.Cache = c }
}

func withPageMode(mode catalog.PageMode, products *fakeProductRepo) catalogOption {
	return func(cfg *CatalogConfig) { cfg.Pager = catalog.NewPager(mode, products) }
}

func withSearchMode(mode catalog.SearchMode) catalogOption {
	return func(cfg *CatalogConfig) { cfg.Builder = catalog.NewBuilder(mode) }
}

func newCatalogService(products *fakeProductRepo, reviews *fakeReviewRepo, opts ...catalogOption) *CatalogService {
	logger := slog.New(slog.DiscardHandler)
	cfg := CatalogConfig{
		Products:   products,
		Reviews:    reviews,
		Categories: &fakeCategoryRepo{},
		Builder:    catalog.NewBuilder(catalog.SearchModePage),
		Pager:      catalog.NewPager(catalog.ModeOffset, products),
		Refiner:    catalog.NewRefiner(catalog.DefaultSearchThreshold),
		Assembler:  catalog.NewAssembler(logger),
		Events:     event.NewProducer(nil, logger),
		Logger:     logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewCatalogService(cfg)
}

func listPrices(page *catalog.PageResult) []float64 {
	prices := make([]float64, len(page.Products))
	for i, p := range page.Products {
		prices[i] = p.Price
	}
	return prices
}

func TestListProductsFirstPageByPriceAscending(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{})

	page, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: 1, PageSize: 2, Category: "electronics", SortBy: "price",
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 10}, listPrices(page))
	assert.Equal(t, 5, page.TotalProducts)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
}

func TestListProductsLastPage(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{})

	page, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: 3, PageSize: 2, Category: "electronics", SortBy: "price",
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{30}, listPrices(page))
	assert.False(t, page.HasNext)
}

func TestListProductsPagesPartitionTheCatalog(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{})

	seen := map[string]int{}
	for p := 1; p <= 3; p++ {
		page, err := svc.ListProducts(context.Background(), catalog.Request{
			Page: p, PageSize: 2, Category: "electronics", SortBy: "price",
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page.Products), 2)
		for _, prod := range page.Products {
			seen[prod.ID]++
		}
	}

	assert.Len(t, seen, 5)
	for id, n := range seen {
		assert.Equal(t, 1, n, "product %s appeared on multiple pages", id)
	}
}

func TestListProductsNegativePageClampsToFirst(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{})

	page, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: -2, PageSize: 2, Category: "electronics", SortBy: "price",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, []float64{5, 10}, listPrices(page))
}

func TestListProductsPageScopedSearch(t *testing.T) {
	products := &fakeProductRepo{products: []domain.Product{
		{ID: "p1", Title: "iPhone 12", Category: "electronics", Price: 799},
		{ID: "p2", Title: "Garden Hose", Category: "outdoors", Price: 25},
		{ID: "p3", Title: "Smartphone Case", Category: "electronics", Price: 15},
	}}
	svc := newCatalogService(products, &fakeReviewRepo{})

	page, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: 1, PageSize: 20, Search: "phone",
	})
	require.NoError(t, err)

	require.Len(t, page.Products, 2)
	assert.Equal(t, "iPhone 12", page.Products[0].Title)
	assert.Equal(t, "Smartphone Case", page.Products[1].Title)
}

func TestListProductsStoreSearchFiltersBeforePaging(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{}, withSearchMode(catalog.SearchModeStore))

	page, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: 1, PageSize: 20, Search: "hose",
	})
	require.NoError(t, err)

	require.Len(t, page.Products, 1)
	assert.Equal(t, "Garden Hose", page.Products[0].Title)
	assert.Equal(t, 1, page.TotalProducts)
}

func TestListProductsCursorMode(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{}, withPageMode(catalog.ModeCursor, products))

	first, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: 1, PageSize: 2, Category: "electronics", SortBy: "price",
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 10}, listPrices(first))
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: 2, PageSize: 2, Category: "electronics", SortBy: "price", Cursor: first.NextCursor,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{15, 20}, listPrices(second))
}

func TestListProductsBadCursorIsInvalidInput(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{}, withPageMode(catalog.ModeCursor, products))

	_, err := svc.ListProducts(context.Background(), catalog.Request{
		Page: 1, PageSize: 2, Cursor: "!!garbage!!",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestListProductsServesSecondCallFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	qc := cache.New(client, time.Minute, nil)

	products := &fakeProductRepo{products: catalogFixture()}
	svc := newCatalogService(products, &fakeReviewRepo{}, withCache(qc))

	req := catalog.Request{Page: 1, PageSize: 2, Category: "electronics", SortBy: "price"}

	first, err := svc.ListProducts(context.Background(), req)
	require.NoError(t, err)
	callsAfterFirst := products.runCalls

	second, err := svc.ListProducts(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, products.runCalls, "second call must not reach the store")
}

func TestGetProductIncludesReviews(t *testing.T) {
	products := &fakeProductRepo{products: catalogFixture()}
	reviews := &fakeReviewRepo{reviews: []domain.Review{
		{ID: "r1", ProductID: "p1", ReviewerEmail: "ana@example.com", Rating: 5, Comment: "Great"},
		{ID: "r2", ProductID: "p2", ReviewerEmail: "bob@example.com", Rating: 3, Comment: "Fine"},
	}}
	svc := newCatalogService(products, reviews)

	detail, err := svc.GetProduct(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "USB Hub", detail.Title)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "r1", detail.Reviews[0].ID)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newCatalogService(&fakeProductRepo{}, &fakeReviewRepo{})

	_, err := svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListCategories(t *testing.T) {
	products := &fakeProductRepo{}
	svc := newCatalogService(products, &fakeReviewRepo{})
	svc.categories = &fakeCategoryRepo{categories: []domain.Category{
		{Name: "electronics", Count: 5},
		{Name: "outdoors", Count: 1},
	}}

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}
