package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

const (
	// identityKeyPrefix + key fingerprint caches the user owning an API key.
	identityKeyPrefix = "identity:key:"
	identityCacheTTL  = 5 * time.Minute
)

// cachedIdentity is the subset of a user stored in Redis. The password
// hash is never cached.
type cachedIdentity struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	RateLimit int       `json:"rate_limit"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityCache is a read-through cache in front of an identity store for
// API key lookups. All other calls pass through.
type IdentityCache struct {
	store.Identity
	cache  *Cache
	logger *slog.Logger
}

var _ store.Identity = (*IdentityCache)(nil)

// WrapIdentity returns next with API key lookups cached in Redis.
func (c *Cache) WrapIdentity(next store.Identity, logger *slog.Logger) *IdentityCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityCache{Identity: next, cache: c, logger: logger.With("component", "identity_cache")}
}

func identityKey(apiKey string) string {
	return identityKeyPrefix + auth.Fingerprint(apiKey)
}

// GetUserByAPIKey serves from Redis when possible. Redis failures degrade to
// the backing store.
func (ic *IdentityCache) GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	key := identityKey(apiKey)

	data, err := ic.cache.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedIdentity
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			return &model.User{
				ID:        cached.ID,
				Username:  cached.Username,
				APIKey:    apiKey,
				RateLimit: cached.RateLimit,
				CreatedAt: cached.CreatedAt,
			}, nil
		}
	case !errors.Is(err, redis.Nil):
		ic.logger.Warn("identity cache read failed", slog.String("error", err.Error()))
	}

	user, err := ic.Identity.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if err := ic.set(ctx, key, user); err != nil {
		ic.logger.Warn("identity cache write failed", slog.String("error", err.Error()))
	}
	return user, nil
}

// UpdateRateLimit updates the backing store and evicts the cached entry so
// the new limit applies on the next request.
func (ic *IdentityCache) UpdateRateLimit(ctx context.Context, id int64, limit int) error {
	if err := ic.Identity.UpdateRateLimit(ctx, id, limit); err != nil {
		return err
	}

	user, err := ic.Identity.GetUserByID(ctx, id)
	if err != nil {
		return nil
	}
	if err := ic.cache.client.Del(ctx, identityKey(user.APIKey)).Err(); err != nil {
		return fmt.Errorf("evict identity cache: %w", err)
	}
	return nil
}

func (ic *IdentityCache) set(ctx context.Context, key string, user *model.User) error {
	data, err := json.Marshal(cachedIdentity{
		ID:        user.ID,
		Username:  user.Username,
		RateLimit: user.RateLimit,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return ic.cache.client.Set(ctx, key, data, identityCacheTTL).Err()
}
