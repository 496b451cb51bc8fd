package service

import (
	"context"
	"sort"
	"strings"

	"github.com/nextshop/storefront/internal/catalog"
	"github.com/nextshop/storefront/internal/domain"
	apperrors "github.com/nextshop/storefront/pkg/errors"
)

// fakeProductRepo keeps products in memory and executes constraint queries
// the way the SQL store does: filters, total ordering with id tie-break,
// then the window.
type fakeProductRepo struct {
	products []domain.Product
	runCalls int
}

func (f *fakeProductRepo) Run(_ context.Context, q catalog.Query) ([]catalog.Document, error) {
	f.runCalls++

	matched := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		if productMatches(p, q.Filters()) {
			matched = append(matched, p)
		}
	}

	if order, ok := q.Order(); ok {
		sort.SliceStable(matched, func(i, j int) bool {
			less := productLess(matched[i], matched[j], order.Field)
			if order.Desc {
				return productLess(matched[j], matched[i], order.Field)
			}
			return less
		})
	}

	for _, c := range q.Constraints() {
		w, ok := c.(catalog.Window)
		if !ok {
			continue
		}
		if w.StartAfter != nil {
			idx := -1
			for i, p := range matched {
				if p.ID == w.StartAfter.ID {
					idx = i
					break
				}
			}
			matched = matched[idx+1:]
		} else if w.Offset > 0 {
			if w.Offset >= len(matched) {
				matched = nil
			} else {
				matched = matched[w.Offset:]
			}
		}
		if w.Limit > 0 && len(matched) > w.Limit {
			matched = matched[:w.Limit]
		}
	}

	docs := make([]catalog.Document, len(matched))
	for i, p := range matched {
		docs[i] = productToDoc(p)
	}
	return docs, nil
}

func (f *fakeProductRepo) Count(_ context.Context, filters []catalog.FieldFilter) (int, error) {
	n := 0
	for _, p := range f.products {
		if productMatches(p, filters) {
			n++
		}
	}
	return n, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("product", id)
}

func (f *fakeProductRepo) Upsert(_ context.Context, p *domain.Product) error {
	for i, existing := range f.products {
		if existing.ID == p.ID {
			f.products[i] = *p
			return nil
		}
	}
	f.products = append(f.products, *p)
	return nil
}

func productMatches(p domain.Product, filters []catalog.FieldFilter) bool {
	for _, f := range filters {
		var val string
		switch f.Field {
		case "category":
			val = p.Category
		case "title":
			val = p.Title
		case "id":
			val = p.ID
		}
		switch f.Op {
		case catalog.OpEqual:
			if val != f.Value {
				return false
			}
		case catalog.OpContains:
			if !strings.Contains(strings.ToLower(val), strings.ToLower(f.Value)) {
				return false
			}
		}
	}
	return true
}

func productLess(a, b domain.Product, field string) bool {
	switch field {
	case "price":
		if a.Price != b.Price {
			return a.Price < b.Price
		}
	case "title":
		if a.Title != b.Title {
			return a.Title < b.Title
		}
	}
	return a.ID < b.ID
}

func productToDoc(p domain.Product) catalog.Document {
	return catalog.Document{
		ID: p.ID,
		Fields: map[string]any{
			"title":          p.Title,
			"description":    p.Description,
			"price":          p.Price,
			"category":       p.Category,
			"stock":          p.Stock,
			"images":         p.Images,
			"tags":           p.Tags,
			"thumbnail":      p.Thumbnail,
			"rating_sum":     p.RatingSum,
			"rating_count":   p.RatingCount,
			"average_rating": p.AverageRating,
			"created_at":     p.CreatedAt,
			"updated_at":     p.UpdatedAt,
		},
	}
}

// fakeReviewRepo keeps reviews in memory keyed by product and review id.
type fakeReviewRepo struct {
	reviews []domain.Review
}

func (f *fakeReviewRepo) ListByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) Get(_ context.Context, productID, reviewID string) (*domain.Review, error) {
	for _, r := range f.reviews {
		if r.ProductID == productID && r.ID == reviewID {
			cp := r
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("review", reviewID)
}

func (f *fakeReviewRepo) Add(_ context.Context, review *domain.Review) error {
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f *fakeReviewRepo) Update(_ context.Context, review *domain.Review) error {
	for i, r := range f.reviews {
		if r.ProductID == review.ProductID && r.ID == review.ID {
			f.reviews[i] = *review
			return nil
		}
	}
	return apperrors.NotFound("review", review.ID)
}

func (f *fakeReviewRepo) Delete(_ context.Context, productID, reviewID string) error {
	for i, r := range f.reviews {
		if r.ProductID == productID && r.ID == reviewID {
			f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("review", reviewID)
}

type fakeCategoryRepo struct {
	categories []domain.Category
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	return f.categories, nil
}
