package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/models"
)

// InteractionsRepository stores events and the preference documents folded from them.
type InteractionsRepository interface {
	Insert(ctx context.Context, userID uuid.UUID, event string, data models.InteractionData, createdAt time.Time) (*models.Interaction, error)
	ApplyPreferences(ctx context.Context, userID uuid.UUID, event string, data models.InteractionData) (*models.Preferences, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*models.Preferences, error)
}

// AnalyticsService records shopper interactions.
type AnalyticsService struct {
	repo InteractionsRepository
	now  func() time.Time
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(repo InteractionsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo, now: time.Now}
}

// Track stores the event and folds it into the user's preferences.
// Preference update failures are logged and do not fail the call.
func (s *AnalyticsService) Track(ctx context.Context, userID uuid.UUID, req *models.TrackEventRequest) (*models.Interaction, error) {
	createdAt := s.now().UTC()
	if req.Timestamp != nil {
		createdAt = req.Timestamp.UTC()
	}

	interaction, err := s.repo.Insert(ctx, userID, req.Event, req.Data, createdAt)
	if err != nil {
		return nil, fmt.Errorf("track interaction: %w", err)
	}

	if _, err := s.repo.ApplyPreferences(ctx, userID, req.Event, req.Data); err != nil {
		slog.WarnContext(ctx, "analytics: preference update failed", "user_id", userID, "event", req.Event, "error", err)
	}

	return interaction, nil
}

// Preferences returns the user's folded preference document.
func (s *AnalyticsService) Preferences(ctx context.Context, userID uuid.UUID) (*models.Preferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	return prefs, nil
}
