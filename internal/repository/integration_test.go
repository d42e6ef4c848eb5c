//go:build integration

package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/formbricks/storefront/internal/apperrors"
	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/pkg/database"
	"github.com/formbricks/storefront/pkg/embeddings"
)

// setupTestDB starts a pgvector Postgres container with the schema applied.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("storefront_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(filepath.Join("..", "..", "migrations", "001_init.sql")),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPostgresPool(ctx, dsn, database.WithAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func insertUser(t *testing.T, db *pgxpool.Pool, name, role string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`,
		name, uuid.NewString()+"@example.com", role,
	).Scan(&id)
	require.NoError(t, err)

	return id
}

func createProduct(t *testing.T, repo *ProductsRepository, vendorID uuid.UUID, name, category, description string, tags []string) *models.Product {
	t.Helper()

	product, err := repo.Create(context.Background(), &CreateProductParams{
		VendorID:    vendorID,
		Name:        name,
		Description: description,
		Category:    category,
		Price:       49.99,
		ImageURL:    models.DefaultProductImageURL,
		Tags:        tags,
		Status:      models.ProductStatusActive,
		Embedding:   embeddings.EmbedProduct(name, description, category, tags),
	})
	require.NoError(t, err)

	return product
}

func TestIntegration_SearchCandidates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	products := NewProductsRepository(db)
	search := NewSearchRepository(db)
	vendor := insertUser(t, db, "Acme Audio", "vendor")

	headphones := createProduct(t, products, vendor, "Wireless Headphones", "Electronics", "Noise cancelling over-ear", []string{"audio", "bluetooth"})
	_ = createProduct(t, products, vendor, "Coffee Grinder", "Kitchen", "Burr grinder for espresso", []string{"coffee"})

	has, err := search.HasEmbeddings(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	t.Run("text ladder exact name", func(t *testing.T) {
		results, err := search.TextCandidates(ctx, "wireless headphones", 30)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, headphones.ID, results[0].ID)
		assert.InDelta(t, 100, results[0].Score, 1e-9)
	})

	t.Run("text ladder category", func(t *testing.T) {
		results, err := search.TextCandidates(ctx, "kitchen", 30)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 80, results[0].Score, 1e-9)
	})

	t.Run("fuzzy", func(t *testing.T) {
		results, err := search.FuzzyCandidates(ctx, "espresso", 20)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, FuzzyScore, results[0].Score, 1e-9)
	})

	t.Run("vector", func(t *testing.T) {
		results, err := search.VectorCandidates(ctx, embeddings.Embed("wireless headphones"), 0.8, 30)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, headphones.ID, results[0].ID)
		assert.Greater(t, results[0].Score, 0.2)
	})
}

func TestIntegration_ModerationAndCart(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	products := NewProductsRepository(db)
	carts := NewCartRepository(db)
	vendor := insertUser(t, db, "Vendor", "vendor")
	shopper := insertUser(t, db, "Shopper", "customer")

	product, err := products.Create(ctx, &CreateProductParams{
		VendorID: vendor, Name: "Desk Lamp", Description: "LED", Category: "Home",
		Price: 20, Status: models.ProductStatusInactive,
	})
	require.NoError(t, err)

	_, err = carts.Add(ctx, shopper, product.ID, 1)
	require.ErrorIs(t, err, apperrors.ErrNotFound, "inactive products cannot be added")

	require.NoError(t, products.SetStatus(ctx, product.ID, models.ProductStatusActive))
	require.ErrorIs(t, products.SetStatus(ctx, product.ID, models.ProductStatusActive), apperrors.ErrConflict)
	require.ErrorIs(t, products.SetStatus(ctx, uuid.New(), models.ProductStatusActive), apperrors.ErrNotFound)

	item, err := carts.Add(ctx, shopper, product.ID, 2)
	require.NoError(t, err)
	item2, err := carts.Add(ctx, shopper, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, item.ID, item2.ID)
	assert.Equal(t, 5, item2.Quantity)

	count, err := carts.Count(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	_, err = carts.UpdateQuantity(ctx, vendor, item.ID, 1)
	require.ErrorIs(t, err, apperrors.ErrNotFound, "other users cannot edit the line")

	require.NoError(t, carts.Remove(ctx, shopper, item.ID))
	require.ErrorIs(t, carts.Remove(ctx, shopper, item.ID), apperrors.ErrNotFound)
}

func TestIntegration_Preferences(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo := NewInteractionsRepository(db)
	user := insertUser(t, db, "Shopper", "customer")
	price := 120.0

	_, err := repo.ApplyPreferences(ctx, user, models.EventAddToCart, models.InteractionData{Category: "Audio", Price: &price})
	require.NoError(t, err)

	prefs, err := repo.ApplyPreferences(ctx, user, models.EventProductView, models.InteractionData{Category: "Audio"})
	require.NoError(t, err)

	assert.Equal(t, 4, prefs.Categories["Audio"])
	assert.Equal(t, 1, prefs.PriceRanges["100-200"])

	stored, err := repo.GetPreferences(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, prefs, stored)
}
