package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/models"
)

// CartRepository stores cart lines.
type CartRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

// CartService manages the authenticated shopper's cart.
type CartService struct {
	repo CartRepository
}

// NewCartService creates a CartService.
func NewCartService(repo CartRepository) *CartService {
	return &CartService{repo: repo}
}

// List returns the user's cart lines.
func (s *CartService) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	return items, nil
}

// Count returns the summed quantity of the cart. Anonymous callers (uuid.Nil) get 0.
func (s *CartService) Count(ctx context.Context, userID uuid.UUID) (*models.CartCount, error) {
	if userID == uuid.Nil {
		return &models.CartCount{}, nil
	}

	n, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count cart: %w", err)
	}

	return &models.CartCount{Count: n}, nil
}

// Add puts quantity of a product in the cart, incrementing an existing line.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.CartItem, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	item, err := s.repo.Add(ctx, userID, req.ProductID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	return item, nil
}

// Update sets the quantity of a cart line.
func (s *CartService) Update(ctx context.Context, userID uuid.UUID, req *models.UpdateCartItemRequest) (*models.CartItem, error) {
	item, err := s.repo.UpdateQuantity(ctx, userID, req.ItemID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return item, nil
}

// Remove deletes a cart line.
func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, itemID); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	return nil
}
