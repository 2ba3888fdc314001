// Package store declares the persistence contracts shared by the gateway.
//
// Implementations live in store/memory (process-local), repository
// (PostgreSQL) and cache (Redis).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nightapi/nightapi/internal/model"
)

// Sentinel errors returned by every implementation.
var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrCodeTaken     = errors.New("short code already exists")
	ErrAPIKeyTaken   = errors.New("api key already exists")
)

// Identity stores registered users.
type Identity interface {
	// CreateUser assigns user.ID and persists the user.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	UpdateRateLimit(ctx context.Context, id int64, limit int) error
}

// Links stores shortened URLs.
type Links interface {
	CreateShortURL(ctx context.Context, link *model.ShortURL) error
	GetShortURL(ctx context.Context, code string) (*model.ShortURL, error)
	// IncrementClicks atomically adds one click and returns the updated link.
	IncrementClicks(ctx context.Context, code string) (*model.ShortURL, error)
}

// Ledger is the append-only usage log.
type Ledger interface {
	Append(ctx context.Context, entry *model.UsageEntry) error
	// CountSince counts the user's entries with timestamp >= since.
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
	// Breakdown groups the user's entries since the given time by endpoint.
	// An empty endpoints filter includes every endpoint.
	Breakdown(ctx context.Context, userID int64, since time.Time, endpoints []string) (map[string]int, error)
}

// Reservation is the outcome of a quota admission.
type Reservation struct {
	// Used counts logged entries plus requests admitted but not yet logged.
	Used     int
	Admitted bool
	// Release frees the claimed slot once the request's entry is appended.
	// It is nil when the request was not admitted.
	Release func()
}

// Reserver admits a request against a daily limit as one atomic step per
// user, so concurrent requests cannot all pass the same remaining slot.
type Reserver interface {
	Reserve(ctx context.Context, userID int64, since time.Time, limit int) (Reservation, error)
}

// Catalog serves seeded jokes and quotes.
type Catalog interface {
	ListJokes(ctx context.Context, category string) ([]model.Joke, error)
	ListQuotes(ctx context.Context, author string) ([]model.Quote, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
