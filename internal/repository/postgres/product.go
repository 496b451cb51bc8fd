// Package postgres implements the repository interfaces on PostgreSQL
// using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nextshop/storefront/internal/catalog"
	"github.com/nextshop/storefront/internal/domain"
	"github.com/nextshop/storefront/pkg/database"
	apperrors "github.com/nextshop/storefront/pkg/errors"
)

const productColumns = `id, title, description, price, category, stock, images, tags, thumbnail, rating_sum, rating_count, average_rating, created_at, updated_at`

// constraintColumns maps constraint field names to table columns. A field
// outside this map is not executable against the store.
var constraintColumns = map[string]string{
	"id":       "id",
	"title":    "title",
	"price":    "price",
	"category": "category",
}

// ProductRepository implements repository.ProductRepository. Its Run and
// Count methods make it the catalog store executor: ordered constraints
// are translated clause by clause into a single SELECT.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Run executes a constraint query against the products table.
func (r *ProductRepository) Run(ctx context.Context, q catalog.Query) ([]catalog.Document, error) {
	sql, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var docs []catalog.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return docs, nil
}

// Count returns the number of products matching the filters alone.
func (r *ProductRepository) Count(ctx context.Context, filters []catalog.FieldFilter) (int, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT count(*) FROM products`)
	where, args, err := filterClauses(filters, args)
	if err != nil {
		return 0, err
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	var count int
	if err := r.pool.QueryRow(ctx, sb.String(), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// GetByID retrieves a single product.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.Stock,
		&p.Images,
		&p.Tags,
		&p.Thumbnail,
		&p.RatingSum,
		&p.RatingCount,
		&p.AverageRating,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// Upsert inserts the product or refreshes its catalog fields. Rating
// aggregates are owned by review writes and are left untouched on update.
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, title, description, price, category, stock, images, tags, thumbnail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			stock = EXCLUDED.stock,
			images = EXCLUDED.images,
			tags = EXCLUDED.tags,
			thumbnail = EXCLUDED.thumbnail,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Price,
		p.Category,
		p.Stock,
		p.Images,
		p.Tags,
		p.Thumbnail,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// buildSelect translates an ordered constraint list into one SELECT. The
// query arrives pre-validated for ordering; this layer only rejects fields
// it cannot execute.
func buildSelect(q catalog.Query) (string, []any, error) {
	var (
		sb      strings.Builder
		where   []string
		orderBy string
		limits  string
		args    []any
		err     error
	)

	sb.WriteString(`SELECT ` + productColumns + ` FROM products`)

	var order catalog.OrderBy
	for _, c := range q.Constraints() {
		switch c := c.(type) {
		case catalog.FieldFilter:
			var clauses []string
			clauses, args, err = filterClauses([]catalog.FieldFilter{c}, args)
			if err != nil {
				return "", nil, err
			}
			where = append(where, clauses...)
		case catalog.OrderBy:
			col, ok := constraintColumns[c.Field]
			if !ok {
				return "", nil, fmt.Errorf("%w: unorderable field %q", catalog.ErrBadQuery, c.Field)
			}
			dir := "ASC"
			if c.Desc {
				dir = "DESC"
			}
			if col == "id" {
				orderBy = fmt.Sprintf(" ORDER BY id %s", dir)
			} else {
				orderBy = fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
			}
			order = c
		case catalog.Window:
			if c.StartAfter != nil {
				clause, newArgs, markErr := startAfterClause(order, c.StartAfter, args)
				if markErr != nil {
					return "", nil, markErr
				}
				where = append(where, clause)
				args = newArgs
			} else if c.Offset > 0 {
				args = append(args, c.Offset)
				limits += fmt.Sprintf(" OFFSET $%d", len(args))
			}
			if c.Limit > 0 {
				args = append(args, c.Limit)
				limits += fmt.Sprintf(" LIMIT $%d", len(args))
			}
		}
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(orderBy)
	sb.WriteString(limits)

	return sb.String(), args, nil
}

// filterClauses appends SQL predicates for the given filters, extending
// and returning the shared args slice.
func filterClauses(filters []catalog.FieldFilter, args []any) ([]string, []any, error) {
	var clauses []string
	for _, f := range filters {
		col, ok := constraintColumns[f.Field]
		if !ok {
			return nil, nil, fmt.Errorf("%w: unfilterable field %q", catalog.ErrBadQuery, f.Field)
		}
		switch f.Op {
		case catalog.OpEqual:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
		case catalog.OpContains:
			args = append(args, "%"+f.Value+"%")
			clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", col, len(args)))
		default:
			return nil, nil, fmt.Errorf("%w: unsupported filter op %q", catalog.ErrBadQuery, f.Op)
		}
	}
	return clauses, args, nil
}

// startAfterClause emits the keyset predicate for a start-after marker:
// a row-value comparison on (sort column, id), direction-aware.
func startAfterClause(order catalog.OrderBy, mark *catalog.Mark, args []any) (string, []any, error) {
	if order.Field == "" {
		return "", nil, fmt.Errorf("%w: start-after without order-by", catalog.ErrBadQuery)
	}
	col, ok := constraintColumns[order.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: unorderable field %q", catalog.ErrBadQuery, order.Field)
	}

	cmp := ">"
	if order.Desc {
		cmp = "<"
	}

	if col == "id" {
		args = append(args, mark.ID)
		return fmt.Sprintf("id %s $%d", cmp, len(args)), args, nil
	}

	args = append(args, mark.SortValue, mark.ID)
	return fmt.Sprintf("(%s, id) %s ($%d, $%d)", col, cmp, len(args)-1, len(args)), args, nil
}

// rowScanner is satisfied by pgx.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (catalog.Document, error) {
	var (
		id            string
		title         string
		description   string
		price         float64
		category      string
		stock         int
		images        []string
		tags          []string
		thumbnail     string
		ratingSum     int64
		ratingCount   int
		averageRating float64
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id, &title, &description, &price, &category, &stock, &images, &tags, &thumbnail,
		&ratingSum, &ratingCount, &averageRating, &createdAt, &updatedAt,
	); err != nil {
		return catalog.Document{}, err
	}

	return catalog.Document{
		ID: id,
		Fields: map[string]any{
			"title":          title,
			"description":    description,
			"price":          price,
			"category":       category,
			"stock":          stock,
			"images":         images,
			"tags":           tags,
			"thumbnail":      thumbnail,
			"rating_sum":     ratingSum,
			"rating_count":   ratingCount,
			"average_rating": averageRating,
			"created_at":     createdAt,
			"updated_at":     updatedAt,
		},
	}, nil
}
