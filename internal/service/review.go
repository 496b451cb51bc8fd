package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nextshop/storefront/internal/cache"
	"github.com/nextshop/storefront/internal/domain"
	"github.com/nextshop/storefront/internal/event"
	"github.com/nextshop/storefront/internal/repository"
	apperrors "github.com/nextshop/storefront/pkg/errors"
	"github.com/nextshop/storefront/pkg/middleware"
)

// ReviewInput carries the caller-supplied review fields.
type ReviewInput struct {
	Rating  int
	Comment string
}

// ReviewService implements the review write path. Every operation requires
// a verified identity; edit and delete additionally require authorship.
type ReviewService struct {
	reviews repository.ReviewRepository
	cache   *cache.QueryCache
	events  *event.Producer
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewReviewService creates the review service.
func NewReviewService(reviews repository.ReviewRepository, queryCache *cache.QueryCache, events *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		cache:   queryCache,
		events:  events,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Add creates a review for the product on behalf of the identity. The
// review id and timestamps are server-assigned.
func (s *ReviewService) Add(ctx context.Context, identity *middleware.Identity, productID string, in ReviewInput) (*domain.Review, error) {
	if identity == nil {
		return nil, apperrors.Unauthorized("missing identity")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	review := &domain.Review{
		ID:            uuid.New().String(),
		ProductID:     productID,
		ReviewerEmail: identity.Email,
		ReviewerName:  identity.Name,
		Rating:        in.Rating,
		Comment:       in.Comment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.reviews.Add(ctx, review); err != nil {
		return nil, err
	}

	s.events.ReviewCreated(ctx, review)
	s.invalidateListings(ctx)
	return review, nil
}

// Update replaces the rating and comment of the identity's own review.
func (s *ReviewService) Update(ctx context.Context, identity *middleware.Identity, productID, reviewID string, in ReviewInput) (*domain.Review, error) {
	if identity == nil {
		return nil, apperrors.Unauthorized("missing identity")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	review, err := s.reviews.Get(ctx, productID, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.IsAuthoredBy(identity.Email) {
		return nil, apperrors.Forbidden("review belongs to another reviewer")
	}

	review.Rating = in.Rating
	review.Comment = in.Comment
	review.UpdatedAt = s.nowFunc().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	s.events.ReviewUpdated(ctx, review)
	s.invalidateListings(ctx)
	return review, nil
}

// Delete removes the identity's own review. An absent review is NotFound
// regardless of identity.
func (s *ReviewService) Delete(ctx context.Context, identity *middleware.Identity, productID, reviewID string) error {
	if identity == nil {
		return apperrors.Unauthorized("missing identity")
	}

	review, err := s.reviews.Get(ctx, productID, reviewID)
	if err != nil {
		return err
	}
	if !review.IsAuthoredBy(identity.Email) {
		return apperrors.Forbidden("review belongs to another reviewer")
	}

	if err := s.reviews.Delete(ctx, productID, reviewID); err != nil {
		return err
	}

	s.events.ReviewDeleted(ctx, review)
	s.invalidateListings(ctx)
	return nil
}

func validateInput(in ReviewInput) error {
	if !domain.IsValidRating(in.Rating) {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if in.Comment == "" {
		return apperrors.InvalidInput("comment must not be empty")
	}
	return nil
}

// invalidateListings drops cached listing pages after a review write so
// rating aggregates never go stale for the TTL window.
func (s *ReviewService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "listing cache invalidation failed", slog.String("error", err.Error()))
	}
}
