package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := NotFound("product", "abc-123")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "abc-123")
}

func TestHTTPStatusFromAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("product", "p1"), http.StatusNotFound},
		{"invalid input", InvalidInput("rating out of range"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("missing token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not the review author"), http.StatusForbidden},
		{"already exists", AlreadyExists("review", "id", "r1"), http.StatusConflict},
		{"upstream", Upstream("list products", errors.New("dial tcp: refused")), http.StatusBadGateway},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatusFromWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("get product: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))

	err = fmt.Errorf("verify token: %w", ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestUpstreamKeepsOperationOutOfMessage(t *testing.T) {
	err := Upstream("count products", errors.New("connection refused"))

	// Caller-visible message stays generic; details live in the wrapped error.
	assert.Equal(t, "a backing service is unavailable", err.Message)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Err.Error(), "count products")
}
