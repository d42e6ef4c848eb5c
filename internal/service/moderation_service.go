package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/models"
)

// ModerationRepository changes product moderation state.
type ModerationRepository interface {
	ListByStatus(ctx context.Context, status models.ProductStatus) ([]models.Product, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.ProductStatus) error
}

// CatalogInvalidator drops cached catalog aggregates.
type CatalogInvalidator interface {
	InvalidateFilterOptions()
}

// ModerationService lets admins approve or reject vendor products.
type ModerationService struct {
	repo        ModerationRepository
	invalidator CatalogInvalidator
}

// NewModerationService creates a ModerationService. invalidator may be nil.
func NewModerationService(repo ModerationRepository, invalidator CatalogInvalidator) *ModerationService {
	return &ModerationService{repo: repo, invalidator: invalidator}
}

// ListPending returns products awaiting approval, oldest first.
func (s *ModerationService) ListPending(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListByStatus(ctx, models.ProductStatusInactive)
	if err != nil {
		return nil, fmt.Errorf("list pending products: %w", err)
	}

	return products, nil
}

// Approve makes a product visible to shoppers.
func (s *ModerationService) Approve(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, models.ProductStatusActive)
}

// Reject declines a product.
func (s *ModerationService) Reject(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, models.ProductStatusRejected)
}

func (s *ModerationService) transition(ctx context.Context, id uuid.UUID, status models.ProductStatus) error {
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("set product status: %w", err)
	}

	slog.InfoContext(ctx, "product moderated", "product_id", id, "status", status)

	if s.invalidator != nil {
		s.invalidator.InvalidateFilterOptions()
	}

	return nil
}
