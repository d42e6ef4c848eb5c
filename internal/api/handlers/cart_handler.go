package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/api/validation"
	"github.com/formbricks/storefront/internal/auth"
	"github.com/formbricks/storefront/internal/models"
)

// CartService manages the caller's cart.
type CartService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Count(ctx context.Context, userID uuid.UUID) (*models.CartCount, error)
	Add(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartItem, error)
	Update(ctx context.Context, userID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartItem, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

// CartHandler serves /v1/cart routes.
type CartHandler struct {
	service CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service CartService) *CartHandler {
	return &CartHandler{service: service}
}

// List handles GET /v1/cart.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), p.UserID)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load cart")

		return
	}

	response.RespondJSON(w, http.StatusOK, items)
}

// Count handles GET /v1/cart/count. Anonymous callers get {"count":0}; the
// route is served with OptionalAuth and never fails the header badge.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	userID := uuid.Nil
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		userID = p.UserID
	}

	count, err := h.service.Count(r.Context(), userID)
	if err != nil {
		response.RespondJSON(w, http.StatusOK, models.CartCount{})

		return
	}

	response.RespondJSON(w, http.StatusOK, count)
}

// Add handles POST /v1/cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.AddCartItemRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	item, err := h.service.Add(r.Context(), p.UserID, &req)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to add to cart")

		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// Update handles PUT /v1/cart.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	item, err := h.service.Update(r.Context(), p.UserID, &req)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to update cart")

		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// Remove handles DELETE /v1/cart/{id}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	itemID, ok := pathID(w, r, "Cart item")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), p.UserID, itemID); err != nil {
		response.RespondAppError(w, r, err, "Failed to remove cart item")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
