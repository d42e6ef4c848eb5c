package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/apperrors"
)

func TestRespondAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"validation", apperrors.NewValidationError("price", "price must be positive"), http.StatusBadRequest, "price must be positive"},
		{"wrapped not found", fmt.Errorf("get product: %w", apperrors.NewNotFoundError("product", "product not found")), http.StatusNotFound, "product not found"},
		{"conflict", apperrors.NewConflictError("product is already active"), http.StatusConflict, "product is already active"},
		{"forbidden", apperrors.NewForbiddenError("admin role required"), http.StatusForbidden, "admin role required"},
		{"limit", apperrors.NewLimitExceededError("upload too large"), http.StatusBadRequest, "upload too large"},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError, "Failed to load"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)

			RespondAppError(rec, req, tc.err, "Failed to load")

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem ProblemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tc.wantStatus, problem.Status)
			assert.Equal(t, tc.wantDetail, problem.Detail)
		})
	}
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondJSON(rec, http.StatusCreated, map[string]int{"count": 2})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":2}`, rec.Body.String())
}
