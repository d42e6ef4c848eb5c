package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/models"
)

// StatsRepository aggregates storefront totals.
type StatsRepository interface {
	AdminStats(ctx context.Context) (*models.AdminStats, error)
	VendorStats(ctx context.Context, vendorID uuid.UUID) (*models.VendorStats, error)
}

// StatsService serves dashboard totals.
type StatsService struct {
	repo StatsRepository
}

func NewStatsService(repo StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) Admin(ctx context.Context) (*models.AdminStats, error) {
	stats, err := s.repo.AdminStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}

	return stats, nil
}

func (s *StatsService) Vendor(ctx context.Context, vendorID uuid.UUID) (*models.VendorStats, error) {
	stats, err := s.repo.VendorStats(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("vendor stats: %w", err)
	}

	return stats, nil
}
