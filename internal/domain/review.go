package domain

import (
	"time"
)

// Review rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a single product review. ReviewerEmail is the verified
// identity of the author and is the key used for ownership checks on edit
// and delete.
type Review struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ReviewerEmail string    `json:"reviewer_email"`
	ReviewerName  string    `json:"reviewer_name,omitempty"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAuthoredBy reports whether the review belongs to the given identity.
func (r *Review) IsAuthoredBy(email string) bool {
	return r.ReviewerEmail == email
}

// IsValidRating checks that a rating falls within the accepted range.
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
