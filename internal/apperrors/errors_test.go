package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{"not found with message", NewNotFoundError("product", "product not found"), ErrNotFound, "product not found"},
		{"not found from resource", NewNotFoundError("cart item", ""), ErrNotFound, "cart item not found"},
		{"validation", NewValidationError("price", "price must be >= 0"), ErrValidation, "price must be >= 0"},
		{"validation from field", NewValidationError("stock", ""), ErrValidation, "validation failed for field: stock"},
		{"limit", NewLimitExceededError(""), ErrLimitExceeded, "limit exceeded"},
		{"conflict", NewConflictError("already approved"), ErrConflict, "already approved"},
		{"forbidden", NewForbiddenError(""), ErrForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("layer: %w", tt.err)

			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestSentinelsDoNotCrossMatch(t *testing.T) {
	err := fmt.Errorf("get product: %w", NewNotFoundError("product", ""))

	assert.False(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrConflict))
}
