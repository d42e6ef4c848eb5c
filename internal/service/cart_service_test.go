package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/models"
)

type mockCartRepo struct {
	countCalls   int
	addQuantity  int
	updateErr    error
	removedItems []uuid.UUID
}

func (m *mockCartRepo) List(context.Context, uuid.UUID) ([]models.CartItem, error) {
	return []models.CartItem{{Quantity: 2}}, nil
}

func (m *mockCartRepo) Count(context.Context, uuid.UUID) (int64, error) {
	m.countCalls++

	return 5, nil
}

func (m *mockCartRepo) Add(_ context.Context, _, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	m.addQuantity = quantity

	return &models.CartItem{ProductID: productID, Quantity: quantity}, nil
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, _, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}

	return &models.CartItem{ID: itemID, Quantity: quantity}, nil
}

func (m *mockCartRepo) Remove(_ context.Context, _, itemID uuid.UUID) error {
	m.removedItems = append(m.removedItems, itemID)

	return nil
}

func TestCartService(t *testing.T) {
	userID := uuid.New()

	t.Run("anonymous count is zero without a query", func(t *testing.T) {
		repo := &mockCartRepo{}
		svc := NewCartService(repo)

		count, err := svc.Count(context.Background(), uuid.Nil)
		require.NoError(t, err)
		assert.Zero(t, count.Count)
		assert.Zero(t, repo.countCalls)

		count, err = svc.Count(context.Background(), userID)
		require.NoError(t, err)
		assert.EqualValues(t, 5, count.Count)
	})

	t.Run("add defaults quantity to one", func(t *testing.T) {
		repo := &mockCartRepo{}
		svc := NewCartService(repo)

		item, err := svc.Add(context.Background(), userID, &models.AddCartItemRequest{ProductID: uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)

		_, err = svc.Add(context.Background(), userID, &models.AddCartItemRequest{ProductID: uuid.New(), Quantity: 4})
		require.NoError(t, err)
		assert.Equal(t, 4, repo.addQuantity)
	})

	t.Run("update wraps errors", func(t *testing.T) {
		sentinel := errors.New("gone")
		svc := NewCartService(&mockCartRepo{updateErr: sentinel})

		_, err := svc.Update(context.Background(), userID, &models.UpdateCartItemRequest{ItemID: uuid.New(), Quantity: 2})
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("remove", func(t *testing.T) {
		repo := &mockCartRepo{}
		itemID := uuid.New()

		require.NoError(t, NewCartService(repo).Remove(context.Background(), userID, itemID))
		assert.Equal(t, []uuid.UUID{itemID}, repo.removedItems)
	})
}
