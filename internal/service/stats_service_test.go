package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/models"
)

type stubStatsRepo struct {
	vendorSeen uuid.UUID
}

func (s *stubStatsRepo) AdminStats(context.Context) (*models.AdminStats, error) {
	return &models.AdminStats{TotalUsers: 3, PendingProducts: 1}, nil
}

func (s *stubStatsRepo) VendorStats(_ context.Context, vendorID uuid.UUID) (*models.VendorStats, error) {
	s.vendorSeen = vendorID

	return &models.VendorStats{TotalProducts: 2}, nil
}

func TestStatsService(t *testing.T) {
	repo := &stubStatsRepo{}
	svc := NewStatsService(repo)

	admin, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, admin.TotalUsers)

	vendorID := uuid.New()
	vendor, err := svc.Vendor(context.Background(), vendorID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, vendor.TotalProducts)
	assert.Equal(t, vendorID, repo.vendorSeen)
}
