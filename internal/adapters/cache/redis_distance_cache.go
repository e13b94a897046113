package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dist:"

// RedisDistanceCache stores each origin|destination result as
// "meters,seconds" with a TTL.
type RedisDistanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDistanceCache(rdb *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{rdb: rdb, ttl: ttl}
}

// NewRedisDistanceCacheFromURL parses a redis:// URL.
func NewRedisDistanceCacheFromURL(url string, ttl time.Duration) (*RedisDistanceCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis distance cache: parse url: %w", err)
	}
	return NewRedisDistanceCache(redis.NewClient(opt), ttl), nil
}

func (c *RedisDistanceCache) Close() error { return c.rdb.Close() }

func (c *RedisDistanceCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.redis.GetMany")(&err)

	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, d := range uniq {
		keys = append(keys, redisKey(origin, d))
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: mget: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		r, err := decodeResult(s)
		if err != nil {
			// Unreadable entries are misses; the next PutMany overwrites them.
			continue
		}
		out[uniq[i]] = r
	}

	countLookups("redis", len(out), len(uniq))
	return out, nil
}

func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) error {
	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("insert distance cache: empty destination key")
		}
		pipe.Set(ctx, redisKey(origin, dest), encodeResult(r), c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert distance cache: pipeline exec: %w", err)
	}
	return nil
}

func redisKey(origin, dest string) string {
	return redisKeyPrefix + origin + "|" + dest
}

func encodeResult(r ports.DistanceResult) string {
	return strconv.Itoa(r.DistanceMeters) + "," + strconv.Itoa(r.DurationSeconds)
}

func decodeResult(s string) (ports.DistanceResult, error) {
	m, sec, ok := strings.Cut(s, ",")
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("malformed cache value %q", s)
	}
	meters, err := strconv.Atoi(m)
	if err != nil {
		return ports.DistanceResult{}, err
	}
	seconds, err := strconv.Atoi(sec)
	if err != nil {
		return ports.DistanceResult{}, err
	}
	return ports.DistanceResult{DistanceMeters: meters, DurationSeconds: seconds}, nil
}
