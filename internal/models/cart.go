package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a line in a shopper's cart joined with its product.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url,omitempty"`
	Stock     int       `json:"stock_quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// AddCartItemRequest adds quantity of a product; an existing line is incremented.
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity,omitempty" validate:"omitempty,min=1,max=999"`
}

// UpdateCartItemRequest sets the quantity of a cart line.
type UpdateCartItemRequest struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=999"`
}

// RemoveCartItemRequest deletes a cart line.
type RemoveCartItemRequest struct {
	ItemID uuid.UUID `json:"itemId" validate:"required"`
}

// CartCount is the total quantity in a cart.
type CartCount struct {
	Count int64 `json:"count"`
}
