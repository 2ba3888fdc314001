package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/nightapi/nightapi/internal/model"
)

// Append inserts a usage entry.
func (r *Repository) Append(ctx context.Context, entry *model.UsageEntry) error {
	query := `
		INSERT INTO usage_log (id, user_id, method, endpoint, status_code, response_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Method,
		entry.Endpoint,
		entry.StatusCode,
		entry.ResponseTimeMS,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append usage entry: %w", err)
	}
	return nil
}

// CountSince counts a user's entries at or after since.
func (r *Repository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM usage_log WHERE user_id = $1 AND created_at >= $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}
	return count, nil
}

// Breakdown groups a user's entries since the given time by endpoint.
func (r *Repository) Breakdown(ctx context.Context, userID int64, since time.Time, endpoints []string) (map[string]int, error) {
	query := `
		SELECT endpoint, COUNT(*)
		FROM usage_log
		WHERE user_id = $1
		  AND created_at >= $2
		  AND (cardinality($3::text[]) = 0 OR endpoint = ANY($3::text[]))
		GROUP BY endpoint
	`

	if endpoints == nil {
		endpoints = []string{}
	}

	rows, err := r.pool.Query(ctx, query, userID, since, pq.Array(endpoints))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage breakdown: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var endpoint string
		var count int
		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, fmt.Errorf("failed to scan usage breakdown: %w", err)
		}
		out[endpoint] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage breakdown: %w", err)
	}
	return out, nil
}
