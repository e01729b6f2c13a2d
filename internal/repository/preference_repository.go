package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/LorenzoDantoni/ai-newsletter/internal/model"
)

type PreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetByUserID returns the stored preferences for a user, or (nil, nil) when
// no row exists. The categories column may hold a JSON array serialized as
// text; it is normalized to a slice before returning.
func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID string) (*model.UserPreferences, error) {
	var p model.UserPreferences
	var rawCategories string

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, email, categories, frequency, is_active, created_at, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Email, &rawCategories, &p.Frequency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	p.Categories = model.NormalizeCategories(rawCategories)
	return &p, nil
}

// IsActive reports whether the user currently wants newsletters. A missing
// row counts as inactive.
func (r *PreferenceRepository) IsActive(ctx context.Context, userID string) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx, `
		SELECT is_active FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&active)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return active, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, p *model.UserPreferences) error {
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return err
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO user_preferences(user_id, email, categories, frequency, is_active)
		VALUES($1, $2, $3, $4, TRUE)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    categories = EXCLUDED.categories,
		    frequency = EXCLUDED.frequency,
		    is_active = TRUE,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`, p.UserID, p.Email, string(categories), p.Frequency).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PreferenceRepository) Deactivate(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_preferences SET is_active = FALSE, updated_at = NOW() WHERE user_id = $1
	`, userID)
	return err
}
