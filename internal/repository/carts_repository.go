package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formbricks/storefront/internal/apperrors"
	"github.com/formbricks/storefront/internal/models"
)

const foreignKeyViolation = "23503"

// CartRepository handles data access for cart lines.
type CartRepository struct {
	db *pgxpool.Pool
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{db: db}
}

const cartItemColumns = `
	c.id, c.product_id, c.quantity, p.name, p.price::float8, COALESCE(p.image_url, ''), p.stock_quantity, c.created_at`

func scanCartItem(row pgx.Row) (models.CartItem, error) {
	var item models.CartItem

	err := row.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Name, &item.Price,
		&item.ImageURL, &item.Stock, &item.CreatedAt)

	return item, err
}

// List returns a user's cart lines, newest first.
func (r *CartRepository) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+cartItemColumns+`
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}

	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// Count returns the total quantity in a user's cart.
func (r *CartRepository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64

	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart: %w", err)
	}

	return count, nil
}

// Add inserts a cart line for an active product or increments the existing one.
func (r *CartRepository) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	var itemID uuid.UUID

	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		SELECT $1, p.id, $3 FROM products p WHERE p.id = $2 AND p.status = 'active'
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id`, userID, productID, quantity,
	).Scan(&itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("product", "product not found")
		}

		// The session outlived its user row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, apperrors.NewNotFoundError("user", "user not found")
		}

		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return r.get(ctx, userID, itemID)
}

// UpdateQuantity sets the quantity of one of the user's cart lines.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE id = $2 AND user_id = $3`, quantity, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return nil, apperrors.NewNotFoundError("cart item", "cart item not found")
	}

	return r.get(ctx, userID, itemID)
}

// Remove deletes one of the user's cart lines.
func (r *CartRepository) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("cart item", "cart item not found")
	}

	return nil
}

func (r *CartRepository) get(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := scanCartItem(r.db.QueryRow(ctx, `
		SELECT `+cartItemColumns+`
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.id = $1 AND c.user_id = $2`, itemID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("cart item", "cart item not found")
		}

		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}

	return &item, nil
}
