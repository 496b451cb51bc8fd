package catalog

import (
	"log/slog"
	"time"

	"github.com/nextshop/storefront/internal/domain"
)

// Assembler merges store documents into flat product records. Documents
// that fail validation are dropped from the page and logged individually;
// one bad record never fails the request.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler that logs skipped documents.
func NewAssembler(logger *slog.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble converts documents to products, preserving order. The input is
// never mutated.
func (a *Assembler) Assemble(docs []Document) []domain.Product {
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p, reason := assembleOne(doc)
		if reason != "" {
			if a.logger != nil {
				a.logger.Warn("skipping malformed product document",
					slog.String("document_id", doc.ID),
					slog.String("reason", reason),
				)
			}
			continue
		}
		products = append(products, p)
	}
	return products
}

// assembleOne validates and flattens a single document. A non-empty reason
// marks the document malformed.
func assembleOne(doc Document) (domain.Product, string) {
	if doc.ID == "" {
		return domain.Product{}, "missing id"
	}

	title, ok := doc.Fields["title"].(string)
	if !ok || title == "" {
		return domain.Product{}, "missing title"
	}

	price, ok := asFloat(doc.Fields["price"])
	if !ok {
		return domain.Product{}, "missing price"
	}
	if price < 0 {
		return domain.Product{}, "negative price"
	}

	p := domain.Product{
		ID:    doc.ID,
		Title: title,
		Price: price,
	}

	if v, ok := doc.Fields["description"].(string); ok {
		p.Description = v
	}
	if v, ok := doc.Fields["category"].(string); ok {
		p.Category = v
	}
	if v, ok := asInt64(doc.Fields["stock"]); ok {
		if v < 0 {
			return domain.Product{}, "negative stock"
		}
		p.Stock = int(v)
	}
	if v, ok := doc.Fields["images"].([]string); ok {
		p.Images = v
	}
	if v, ok := doc.Fields["tags"].([]string); ok {
		p.Tags = v
	}
	if v, ok := doc.Fields["thumbnail"].(string); ok {
		p.Thumbnail = v
	}
	if v, ok := asInt64(doc.Fields["rating_sum"]); ok {
		p.RatingSum = v
	}
	if v, ok := asInt64(doc.Fields["rating_count"]); ok {
		p.RatingCount = int(v)
	}
	if v, ok := asFloat(doc.Fields["average_rating"]); ok {
		p.AverageRating = v
	}
	if v, ok := doc.Fields["created_at"].(time.Time); ok {
		p.CreatedAt = v
	}
	if v, ok := doc.Fields["updated_at"].(time.Time); ok {
		p.UpdatedAt = v
	}

	return p, ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
