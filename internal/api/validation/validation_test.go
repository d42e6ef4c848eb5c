package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/models"
)

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"shoes","limit":5}`))

		var req models.VectorSearchRequest
		require.NoError(t, DecodeJSON(r, &req))
		assert.Equal(t, "shoes", req.Query)
		assert.Equal(t, 5, req.Limit)
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"shoes","extra":1}`))

		var req models.VectorSearchRequest
		assert.ErrorIs(t, DecodeJSON(r, &req), ErrInvalidBody)
	})

	t.Run("trailing data", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"a"}{"query":"b"}`))

		var req models.VectorSearchRequest
		assert.ErrorIs(t, DecodeJSON(r, &req), ErrInvalidBody)
	})

	t.Run("validation uses json names", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","description":"d","category":"c","price":-1,"stock_quantity":1}`))

		var req models.CreateProductRequest
		err := DecodeJSON(r, &req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "price must be greater than or equal to 0")
	})

	t.Run("null bytes rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"a\u0000b"}`))

		var req models.VectorSearchRequest
		err := DecodeJSON(r, &req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query must not contain NULL bytes")
	})

	t.Run("nil uuid fails required", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"00000000-0000-0000-0000-000000000000"}`))

		var req models.AddCartItemRequest
		err := DecodeJSON(r, &req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "productId is required")
	})
}

func TestRespondDecodeError(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":""}`))

	var req models.ChatRequest
	err := DecodeJSON(r, &req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	RespondDecodeError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var problem response.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Validation Error", problem.Title)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "message", problem.Errors[0].Location)
}

func TestValidateAndDecodeQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?category=Books&limit=10&offset=20", nil)

	var filters models.ListProductsFilters
	require.NoError(t, ValidateAndDecodeQueryParams(r, &filters))
	assert.Equal(t, "Books", filters.Category)
	assert.Equal(t, 10, filters.Limit)
	assert.Equal(t, 20, filters.Offset)

	r = httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	assert.Error(t, ValidateAndDecodeQueryParams(r, &models.ListProductsFilters{}))

	type withID struct {
		ID uuid.UUID `form:"id"`
	}

	id := uuid.New()
	r = httptest.NewRequest(http.MethodGet, "/?id="+id.String(), nil)

	var dst withID
	require.NoError(t, DecodeQueryParams(r, &dst))
	assert.Equal(t, id, dst.ID)
}

func TestDecodeJSON_PriceRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"priceRange":[10,50]}`))

	var ok models.SmartFilterRequest
	require.NoError(t, DecodeJSON(r, &ok))
	assert.Equal(t, []float64{10, 50}, ok.PriceRange)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"priceRange":[50,10]}`))

	var reversed models.SmartFilterRequest
	err := DecodeJSON(r, &reversed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priceRange must be in ascending order")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"priceRange":[10]}`))

	var short models.SmartFilterRequest
	err = DecodeJSON(r, &short)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priceRange must have length 2")
}
