package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/cache"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/repository"
	"github.com/nightapi/nightapi/internal/store"
)

type output struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	APIKey    string `json:"api_key,omitempty"`
	RateLimit int    `json:"rate_limit"`
	Created   bool   `json:"created"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		redisURL    = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection string; cached identities are refreshed when set")
		username    = flag.String("username", "admin", "Username to create or update")
		password    = flag.String("password", "", "Password for a new user; a random one is generated when empty")
		limit       = flag.Int("limit", model.DefaultRateLimit, "Daily request limit")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "limit must be positive")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	var users store.Identity = repo
	if *redisURL != "" {
		c, err := cache.New(ctx, *redisURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "connect redis:", err)
			os.Exit(1)
		}
		defer c.Close()
		users = c.WrapIdentity(repo, nil)
	}

	out, err := ensureUser(ctx, users, *username, *password, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	switch strings.ToLower(*format) {
	case "plain":
		if out.Created {
			fmt.Println(out.APIKey)
		} else {
			fmt.Printf("user %s daily limit set to %d\n", out.Username, out.RateLimit)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// ensureUser updates the limit of an existing user or creates a new one.
func ensureUser(ctx context.Context, users store.Identity, username, password string, limit int) (output, error) {
	existing, err := users.GetUserByUsername(ctx, username)
	if err == nil {
		if err := users.UpdateRateLimit(ctx, existing.ID, limit); err != nil {
			return output{}, fmt.Errorf("update rate limit: %w", err)
		}
		return output{UserID: existing.IDString(), Username: existing.Username, RateLimit: limit}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return output{}, fmt.Errorf("lookup user: %w", err)
	}

	if password == "" {
		if password, err = auth.GenerateAPIKey(); err != nil {
			return output{}, err
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return output{}, fmt.Errorf("hash password: %w", err)
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return output{}, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		APIKey:       apiKey,
		RateLimit:    limit,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return output{}, fmt.Errorf("create user: %w", err)
	}
	return output{UserID: user.IDString(), Username: username, APIKey: apiKey, RateLimit: limit, Created: true}, nil
}
