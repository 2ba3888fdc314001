package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

const userColumns = `id, username, password_hash, api_key, rate_limit, created_at`

// CreateUser inserts a user; the database assigns the id.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, password_hash, api_key, rate_limit)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.APIKey,
		user.DailyLimit(),
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		switch uniqueViolation(err) {
		case "users_username_key":
			return store.ErrUsernameTaken
		case "users_api_key_key":
			return store.ErrAPIKeyTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, "username", username)
}

// GetUserByAPIKey retrieves a user by API key.
// This is the hot path for every keyed request.
func (r *Repository) GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.getUser(ctx, "api_key", apiKey)
}

func (r *Repository) getUser(ctx context.Context, column string, value any) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	var user model.User
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.APIKey,
		&user.RateLimit,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &user, nil
}

// UpdateRateLimit changes a user's daily allowance.
func (r *Repository) UpdateRateLimit(ctx context.Context, id int64, limit int) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET rate_limit = $2 WHERE id = $1`, id, limit)
	if err != nil {
		return fmt.Errorf("failed to update rate limit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
