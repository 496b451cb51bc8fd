package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nextshop/storefront/internal/domain"
	"github.com/nextshop/storefront/pkg/database"
	apperrors "github.com/nextshop/storefront/pkg/errors"
)

const (
	serializationFailureCode = "40001"
	txMaxAttempts            = 3
)

const reviewColumns = `id, product_id, reviewer_email, reviewer_name, rating, comment, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository. Every mutation
// updates the review row and the product rating aggregate in a single
// transaction; the aggregate writes are expressed as in-place arithmetic
// so concurrent reviewers never lose an increment.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// ListByProduct returns a product's reviews, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// Get retrieves a single review scoped to its product.
func (r *ReviewRepository) Get(ctx context.Context, productID, reviewID string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 AND id = $2`

	var rv domain.Review
	if err := scanReview(r.pool.QueryRow(ctx, query, productID, reviewID), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", reviewID)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

// Add inserts the review and folds its rating into the product aggregate.
// A missing product surfaces as NotFound before the insert is attempted.
func (r *ReviewRepository) Add(ctx context.Context, review *domain.Review) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE products SET
				rating_sum = rating_sum + $1,
				rating_count = rating_count + 1,
				average_rating = (rating_sum + $1)::double precision / (rating_count + 1),
				updated_at = now()
			WHERE id = $2`,
			review.Rating, review.ProductID,
		)
		if err != nil {
			return fmt.Errorf("apply rating to product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("product", review.ProductID)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO reviews (id, product_id, reviewer_email, reviewer_name, rating, comment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			review.ID,
			review.ProductID,
			review.ReviewerEmail,
			review.ReviewerName,
			review.Rating,
			review.Comment,
			review.CreatedAt,
			review.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		return nil
	})
}

// Update replaces the review's rating and comment and re-applies the
// rating delta to the aggregate.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var oldRating int
		err := tx.QueryRow(ctx,
			`SELECT rating FROM reviews WHERE product_id = $1 AND id = $2 FOR UPDATE`,
			review.ProductID, review.ID,
		).Scan(&oldRating)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("review", review.ID)
			}
			return fmt.Errorf("lock review: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE reviews SET rating = $1, comment = $2, updated_at = now()
			WHERE product_id = $3 AND id = $4`,
			review.Rating, review.Comment, review.ProductID, review.ID,
		)
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}

		delta := review.Rating - oldRating
		if delta == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE products SET
				rating_sum = rating_sum + $1,
				average_rating = (rating_sum + $1)::double precision / rating_count,
				updated_at = now()
			WHERE id = $2`,
			delta, review.ProductID,
		)
		if err != nil {
			return fmt.Errorf("apply rating delta to product: %w", err)
		}
		return nil
	})
}

// Delete removes the review and subtracts its rating from the aggregate.
// Deleting an absent review is NotFound, not an error state.
func (r *ReviewRepository) Delete(ctx context.Context, productID, reviewID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var rating int
		err := tx.QueryRow(ctx,
			`DELETE FROM reviews WHERE product_id = $1 AND id = $2 RETURNING rating`,
			productID, reviewID,
		).Scan(&rating)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("review", reviewID)
			}
			return fmt.Errorf("delete review: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE products SET
				rating_sum = rating_sum - $1,
				rating_count = rating_count - 1,
				average_rating = CASE
					WHEN rating_count - 1 = 0 THEN 0
					ELSE (rating_sum - $1)::double precision / (rating_count - 1)
				END,
				updated_at = now()
			WHERE id = $2`,
			rating, productID,
		)
		if err != nil {
			return fmt.Errorf("remove rating from product: %w", err)
		}
		return nil
	})
}

// inTx runs fn inside a transaction, retrying the whole transaction on
// serialization failures.
func (r *ReviewRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		err := r.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("review transaction failed after %d attempts: %w", txMaxAttempts, lastErr)
}

func (r *ReviewRepository) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin review tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit review tx: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode
}

func scanReview(row rowScanner, rv *domain.Review) error {
	return row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.ReviewerEmail,
		&rv.ReviewerName,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
}
