package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formbricks/storefront/internal/apperrors"
)

// UsersRepository reads storefront accounts.
type UsersRepository struct {
	db *pgxpool.Pool
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *pgxpool.Pool) *UsersRepository {
	return &UsersRepository{db: db}
}

// GetRole returns the stored role of a user.
func (r *UsersRepository) GetRole(ctx context.Context, id uuid.UUID) (string, error) {
	var role string

	err := r.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFoundError("user", "user not found")
		}

		return "", fmt.Errorf("failed to get user role: %w", err)
	}

	return role, nil
}
