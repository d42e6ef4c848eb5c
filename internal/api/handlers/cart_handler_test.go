package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/apperrors"
	"github.com/formbricks/storefront/internal/auth"
	"github.com/formbricks/storefront/internal/models"
)

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.CartItem), args.Error(1)
}

func (m *MockCartService) Count(ctx context.Context, userID uuid.UUID) (*models.CartCount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartCount), args.Error(1)
}

func (m *MockCartService) Add(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartItem, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *MockCartService) Update(ctx context.Context, userID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartItem, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	args := m.Called(ctx, userID, itemID)

	return args.Error(0)
}

func asCustomer(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: userID, Role: auth.RoleCustomer}))
}

func TestCartHandler_Count(t *testing.T) {
	t.Run("anonymous caller counts the nil user", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/v1/cart/count", nil)
		mockService.On("Count", req.Context(), uuid.Nil).Return(&models.CartCount{}, nil)

		w := httptest.NewRecorder()
		handler.Count(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"count":0}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("service error still answers zero", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService)

		userID := uuid.New()
		req := asCustomer(httptest.NewRequest(http.MethodGet, "/v1/cart/count", nil), userID)
		mockService.On("Count", req.Context(), userID).Return(nil, errors.New("db down"))

		w := httptest.NewRecorder()
		handler.Count(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"count":0}`, w.Body.String())
	})
}

func TestCartHandler_Add(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("adds product", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService)

		body := `{"productId":"` + productID.String() + `","quantity":2}`
		req := asCustomer(httptest.NewRequest(http.MethodPost, "/v1/cart", bytes.NewBufferString(body)), userID)

		item := &models.CartItem{ID: uuid.New(), ProductID: productID, Quantity: 2}
		mockService.On("Add", req.Context(), userID, &models.AddCartItemRequest{ProductID: productID, Quantity: 2}).
			Return(item, nil)

		w := httptest.NewRecorder()
		handler.Add(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got models.CartItem
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, 2, got.Quantity)
		mockService.AssertExpectations(t)
	})

	t.Run("inactive product is not found", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService)

		body := `{"productId":"` + productID.String() + `"}`
		req := asCustomer(httptest.NewRequest(http.MethodPost, "/v1/cart", bytes.NewBufferString(body)), userID)
		mockService.On("Add", req.Context(), userID, mock.AnythingOfType("*models.AddCartItemRequest")).
			Return(nil, apperrors.NewNotFoundError("product", "product not found"))

		w := httptest.NewRecorder()
		handler.Add(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing product id", func(t *testing.T) {
		mockService := new(MockCartService)
		handler := NewCartHandler(mockService)

		req := asCustomer(httptest.NewRequest(http.MethodPost, "/v1/cart", bytes.NewBufferString(`{"quantity":1}`)), userID)

		w := httptest.NewRecorder()
		handler.Add(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCartHandler_Remove(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()

	mockService := new(MockCartService)
	handler := NewCartHandler(mockService)

	req := asCustomer(httptest.NewRequest(http.MethodDelete, "/v1/cart/"+itemID.String(), nil), userID)
	req.SetPathValue("id", itemID.String())
	mockService.On("Remove", req.Context(), userID, itemID).Return(nil)

	w := httptest.NewRecorder()
	handler.Remove(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
