// Package event publishes storefront domain events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextshop/storefront/internal/domain"
	pkgkafka "github.com/nextshop/storefront/pkg/kafka"
)

// Kafka topics for storefront domain events.
const (
	TopicReviewCreated = "storefront.review.created"
	TopicReviewUpdated = "storefront.review.updated"
	TopicReviewDeleted = "storefront.review.deleted"
	TopicProductViewed = "storefront.product.viewed"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront-api"

// ReviewData is the payload for review lifecycle events.
type ReviewData struct {
	ReviewID      string `json:"review_id"`
	ProductID     string `json:"product_id"`
	ReviewerEmail string `json:"reviewer_email"`
	Rating        int    `json:"rating"`
}

// ProductViewedData is the payload for a product.viewed event.
type ProductViewedData struct {
	ProductID string `json:"product_id"`
	Category  string `json:"category"`
}

// Publisher is the event transport. Satisfied by pkg/kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events. Publish failures are logged
// and swallowed: events decorate the write path, they never fail it.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a storefront event producer. A nil publisher
// disables publishing.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// ReviewCreated publishes a review.created event.
func (p *Producer) ReviewCreated(ctx context.Context, review *domain.Review) {
	p.publishReview(ctx, TopicReviewCreated, review)
}

// ReviewUpdated publishes a review.updated event.
func (p *Producer) ReviewUpdated(ctx context.Context, review *domain.Review) {
	p.publishReview(ctx, TopicReviewUpdated, review)
}

// ReviewDeleted publishes a review.deleted event.
func (p *Producer) ReviewDeleted(ctx context.Context, review *domain.Review) {
	p.publishReview(ctx, TopicReviewDeleted, review)
}

// ProductViewed publishes a product.viewed event.
func (p *Producer) ProductViewed(ctx context.Context, product *domain.Product) {
	if p == nil || p.publisher == nil {
		return
	}

	data := ProductViewedData{ProductID: product.ID, Category: product.Category}
	p.publish(ctx, TopicProductViewed, product.ID, data)
}

func (p *Producer) publishReview(ctx context.Context, topic string, review *domain.Review) {
	if p == nil || p.publisher == nil {
		return
	}

	data := ReviewData{
		ReviewID:      review.ID,
		ProductID:     review.ProductID,
		ReviewerEmail: review.ReviewerEmail,
		Rating:        review.Rating,
	}
	p.publish(ctx, topic, review.ProductID, data)
}

func (p *Producer) publish(ctx context.Context, topic, subject string, data any) {
	event, err := pkgkafka.NewEvent(topic, subject, SourceStorefront, data)
	if err != nil {
		p.logFailure(ctx, topic, err)
		return
	}
	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		p.logFailure(ctx, topic, err)
	}
}

func (p *Producer) logFailure(ctx context.Context, topic string, err error) {
	if p.logger != nil {
		p.logger.WarnContext(ctx, "event publish failed",
			slog.String("topic", topic),
			slog.String("error", fmt.Sprintf("%v", err)),
		)
	}
}
