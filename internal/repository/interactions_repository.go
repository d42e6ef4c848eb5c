package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formbricks/storefront/internal/models"
)

// InteractionsRepository stores tracked events and the preference documents folded from them.
type InteractionsRepository struct {
	db *pgxpool.Pool
}

// NewInteractionsRepository creates a new interactions repository.
func NewInteractionsRepository(db *pgxpool.Pool) *InteractionsRepository {
	return &InteractionsRepository{db: db}
}

// Insert stores one interaction. data is encoded as jsonb.
func (r *InteractionsRepository) Insert(
	ctx context.Context, userID uuid.UUID, event string, data models.InteractionData, createdAt time.Time,
) (*models.Interaction, error) {
	interaction := models.Interaction{UserID: userID, Event: event, Data: data}

	err := r.db.QueryRow(ctx, `
		INSERT INTO user_interactions (user_id, event, data, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, userID, event, data, createdAt,
	).Scan(&interaction.ID, &interaction.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert interaction: %w", err)
	}

	return &interaction, nil
}

// ApplyPreferences folds an event into the user's preference document under a row lock.
func (r *InteractionsRepository) ApplyPreferences(
	ctx context.Context, userID uuid.UUID, event string, data models.InteractionData,
) (*models.Preferences, error) {
	prefs := models.NewPreferences()

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_preferences (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID,
		); err != nil {
			return fmt.Errorf("ensure preferences row: %w", err)
		}

		if err := tx.QueryRow(ctx,
			`SELECT preferences FROM user_preferences WHERE user_id = $1 FOR UPDATE`, userID,
		).Scan(prefs); err != nil {
			return fmt.Errorf("lock preferences: %w", err)
		}

		prefs.Apply(event, data)

		if _, err := tx.Exec(ctx,
			`UPDATE user_preferences SET preferences = $1, updated_at = NOW() WHERE user_id = $2`, prefs, userID,
		); err != nil {
			return fmt.Errorf("write preferences: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply preferences: %w", err)
	}

	return prefs, nil
}

// GetPreferences returns the user's preference document, empty when none was recorded.
func (r *InteractionsRepository) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.Preferences, error) {
	prefs := models.NewPreferences()

	rows, err := r.db.Query(ctx, `SELECT preferences FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(prefs); err != nil {
			return nil, fmt.Errorf("failed to scan preferences: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return prefs, nil
}
