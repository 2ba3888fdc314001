package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

const (
	// usageKeyPrefix + user id holds a sorted set of the user's entries,
	// scored by unix milliseconds.
	usageKeyPrefix = "usage:user:"
	// UsageStream receives every entry, keyed or anonymous.
	UsageStream = "stream:usage"
	// MaxUsageStreamLen caps the stream with approximate trimming.
	MaxUsageStreamLen = 100000
	// usageRetention bounds how long per-user entries are kept; daily
	// quotas never look back further than one day.
	usageRetention = 48 * time.Hour
	// inflightKeyPrefix + user id counts requests admitted but not yet
	// appended. The TTL bounds slots leaked by a crashed replica.
	inflightKeyPrefix = "usage:inflight:"
	inflightTTL       = 15 * time.Minute
	releaseTimeout    = 2 * time.Second
)

var (
	_ store.Ledger   = (*Cache)(nil)
	_ store.Reserver = (*Cache)(nil)
)

// reserveScript counts logged and in-flight requests and claims a slot when
// the total is below the limit. Returns {admitted, used}.
var reserveScript = redis.NewScript(`
	local logged = redis.call('ZCOUNT', KEYS[1], ARGV[1], '+inf')
	local inflight = tonumber(redis.call('GET', KEYS[2]) or '0')
	local used = logged + inflight
	if used >= tonumber(ARGV[2]) then
		return {0, used}
	end
	redis.call('INCR', KEYS[2])
	redis.call('EXPIRE', KEYS[2], ARGV[3])
	return {1, used}
`)

// releaseScript frees one in-flight slot and drops the counter at zero.
var releaseScript = redis.NewScript(`
	local n = redis.call('DECR', KEYS[1])
	if n <= 0 then
		redis.call('DEL', KEYS[1])
	end
	return n
`)

func inflightKey(userID int64) string {
	return inflightKeyPrefix + strconv.FormatInt(userID, 10)
}

// usageMember encodes the set member as "<entry id>|<endpoint>" so the
// per-endpoint breakdown needs no second lookup.
func usageMember(entry *model.UsageEntry) string {
	return entry.ID + "|" + entry.Endpoint
}

// memberEndpoint extracts the endpoint from a set member.
func memberEndpoint(member string) string {
	if i := strings.IndexByte(member, '|'); i >= 0 {
		return member[i+1:]
	}
	return ""
}

func usageKey(userID int64) string {
	return usageKeyPrefix + strconv.FormatInt(userID, 10)
}

func scoreOf(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// Append records the entry in the user's sorted set (trimming anything older
// than the retention window) and publishes it to the usage stream, in one
// MULTI/EXEC round trip.
func (c *Cache) Append(ctx context.Context, entry *model.UsageEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal usage entry: %w", err)
	}

	pipe := c.client.TxPipeline()
	if entry.UserID != nil {
		key := usageKey(*entry.UserID)
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.Timestamp.UnixMilli()),
			Member: usageMember(entry),
		})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+scoreOf(entry.Timestamp.Add(-usageRetention)))
		pipe.Expire(ctx, key, usageRetention)
	}
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: UsageStream,
		MaxLen: MaxUsageStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"payload": string(payload)},
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append usage entry: %w", err)
	}
	return nil
}

// CountSince counts the user's entries scored at or after since.
func (c *Cache) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	n, err := c.client.ZCount(ctx, usageKey(userID), scoreOf(since), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return int(n), nil
}

// Breakdown groups the user's entries since the given time by endpoint.
func (c *Cache) Breakdown(ctx context.Context, userID int64, since time.Time, endpoints []string) (map[string]int, error) {
	members, err := c.client.ZRangeByScore(ctx, usageKey(userID), &redis.ZRangeBy{
		Min: scoreOf(since),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range usage: %w", err)
	}

	filter := make(map[string]bool, len(endpoints))
	for _, ep := range endpoints {
		filter[ep] = true
	}

	out := make(map[string]int)
	for _, m := range members {
		ep := memberEndpoint(m)
		if len(filter) > 0 && !filter[ep] {
			continue
		}
		out[ep]++
	}
	return out, nil
}

// Reserve admits a request against the user's limit in one script run, so
// every replica sharing this Redis sees the same in-flight slots.
func (c *Cache) Reserve(ctx context.Context, userID int64, since time.Time, limit int) (store.Reservation, error) {
	result, err := reserveScript.Run(ctx, c.client,
		[]string{usageKey(userID), inflightKey(userID)},
		scoreOf(since), limit, int(inflightTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return store.Reservation{}, fmt.Errorf("reserve usage: %w", err)
	}

	res := store.Reservation{Used: int(result[1]), Admitted: result[0] == 1}
	if !res.Admitted {
		return res, nil
	}

	var once sync.Once
	res.Release = func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			// A failed release expires with the counter's TTL.
			_ = releaseScript.Run(rctx, c.client, []string{inflightKey(userID)}).Err()
		})
	}
	return res, nil
}
