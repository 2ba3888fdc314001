package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

// CreateShortURL inserts a link. The primary key enforces code uniqueness.
func (r *Repository) CreateShortURL(ctx context.Context, link *model.ShortURL) error {
	query := `
		INSERT INTO short_urls (code, original_url)
		VALUES ($1, $2)
		RETURNING clicks, created_at
	`

	err := r.pool.QueryRow(ctx, query, link.Code, link.OriginalURL).Scan(&link.Clicks, &link.CreatedAt)
	if err != nil {
		if uniqueViolation(err) != "" {
			return store.ErrCodeTaken
		}
		return fmt.Errorf("failed to create short url: %w", err)
	}
	return nil
}

// GetShortURL retrieves a link by code.
func (r *Repository) GetShortURL(ctx context.Context, code string) (*model.ShortURL, error) {
	query := `SELECT code, original_url, clicks, created_at FROM short_urls WHERE code = $1`
	return scanShortURL(r.pool.QueryRow(ctx, query, code))
}

// IncrementClicks adds one click in a single atomic statement.
func (r *Repository) IncrementClicks(ctx context.Context, code string) (*model.ShortURL, error) {
	query := `
		UPDATE short_urls
		SET clicks = clicks + 1
		WHERE code = $1
		RETURNING code, original_url, clicks, created_at
	`
	return scanShortURL(r.pool.QueryRow(ctx, query, code))
}

func scanShortURL(row pgx.Row) (*model.ShortURL, error) {
	var link model.ShortURL
	err := row.Scan(&link.Code, &link.OriginalURL, &link.Clicks, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan short url: %w", err)
	}
	return &link, nil
}
