package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/models"
)

type mockInteractionsRepo struct {
	insertErr    error
	applyErr     error
	insertedAt   time.Time
	appliedEvent string
}

func (m *mockInteractionsRepo) Insert(
	_ context.Context, userID uuid.UUID, event string, data models.InteractionData, createdAt time.Time,
) (*models.Interaction, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}

	m.insertedAt = createdAt

	return &models.Interaction{ID: uuid.New(), UserID: userID, Event: event, Data: data, CreatedAt: createdAt}, nil
}

func (m *mockInteractionsRepo) ApplyPreferences(
	_ context.Context, _ uuid.UUID, event string, _ models.InteractionData,
) (*models.Preferences, error) {
	m.appliedEvent = event

	if m.applyErr != nil {
		return nil, m.applyErr
	}

	return models.NewPreferences(), nil
}

func (m *mockInteractionsRepo) GetPreferences(context.Context, uuid.UUID) (*models.Preferences, error) {
	return models.NewPreferences(), nil
}

func TestAnalyticsService_Track(t *testing.T) {
	userID := uuid.New()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("stores event with current time and folds preferences", func(t *testing.T) {
		repo := &mockInteractionsRepo{}
		svc := NewAnalyticsService(repo)
		svc.now = func() time.Time { return fixed }

		interaction, err := svc.Track(context.Background(), userID, &models.TrackEventRequest{
			Event: models.EventProductView,
			Data:  models.InteractionData{Category: "Books"},
		})
		require.NoError(t, err)
		assert.Equal(t, fixed, repo.insertedAt)
		assert.Equal(t, models.EventProductView, repo.appliedEvent)
		assert.Equal(t, "Books", interaction.Data.Category)
	})

	t.Run("client timestamp is used", func(t *testing.T) {
		repo := &mockInteractionsRepo{}
		ts := fixed.Add(-time.Hour)

		_, err := NewAnalyticsService(repo).Track(context.Background(), userID, &models.TrackEventRequest{
			Event: models.EventSearch, Timestamp: &ts,
		})
		require.NoError(t, err)
		assert.Equal(t, ts, repo.insertedAt)
	})

	t.Run("preference failure is not surfaced", func(t *testing.T) {
		repo := &mockInteractionsRepo{applyErr: errors.New("lock timeout")}

		_, err := NewAnalyticsService(repo).Track(context.Background(), userID, &models.TrackEventRequest{Event: models.EventPurchase})
		assert.NoError(t, err)
	})

	t.Run("insert failure is surfaced", func(t *testing.T) {
		repo := &mockInteractionsRepo{insertErr: errors.New("db down")}

		_, err := NewAnalyticsService(repo).Track(context.Background(), userID, &models.TrackEventRequest{Event: models.EventPurchase})
		assert.Error(t, err)
		assert.Empty(t, repo.appliedEvent)
	})
}
