package cache

import (
	"context"
	"errors"
	"fmt"
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/obs"
	"place-route-service/internal/ports"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "routecache:"

// RedisRouteCache keeps one hash per route key with the fields
// payload, created_at, hit_count and last_hit_at (unix milliseconds).
// Keys also carry a native TTL, so the periodic sweep only catches
// entries whose TTL was lost or extended.
type RedisRouteCache struct {
	RC  *redis.Client
	TTL time.Duration
	Now func() time.Time
}

func NewRedisRouteCache(rc *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{RC: rc, TTL: ttlOrDefault(ttl), Now: time.Now}
}

func (r *RedisRouteCache) Get(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
	mode domain.TravelMode,
) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if r.RC == nil {
		return nil, false, errors.New("route cache: redis client is nil")
	}

	key := redisKeyPrefix + RouteKey(origin, destination, mode)
	fields, err := r.RC.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: hgetall %q: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	now := r.Now()
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil || r.expired(createdAt, now) {
		if err := r.RC.Del(ctx, key).Err(); err != nil {
			return nil, false, fmt.Errorf("get route cache: delete expired %q: %w", key, err)
		}
		return nil, false, nil
	}

	ok, err := r.recordHit(ctx, key, now)
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: record hit %q: %w", key, err)
	}
	// Expired between the read and the hit update.
	if !ok {
		return nil, false, nil
	}

	return []byte(fields["payload"]), true, nil
}

// recordHitScript bumps the hit counters only while the hash still exists,
// so a key expiring mid-Get is not recreated without its TTL.
var recordHitScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HINCRBY", KEYS[1], "hit_count", 1)
redis.call("HSET", KEYS[1], "last_hit_at", ARGV[1])
return 1
`)

func (r *RedisRouteCache) recordHit(ctx context.Context, key string, now time.Time) (bool, error) {
	n, err := recordHitScript.Run(ctx, r.RC, []string{key}, now.UnixMilli()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRouteCache) expired(createdAtMs int64, now time.Time) bool {
	return createdAtMs < now.Add(-r.TTL).UnixMilli()
}

func (r *RedisRouteCache) Put(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
	mode domain.TravelMode,
	payload []byte,
) error {
	if r.RC == nil {
		return errors.New("route cache: redis client is nil")
	}

	if len(payload) == 0 {
		return errors.New("insert route cache: payload must not be empty")
	}

	key := redisKeyPrefix + RouteKey(origin, destination, mode)

	pipe := r.RC.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"payload", payload,
		"created_at", r.Now().UnixMilli(),
		"hit_count", 0,
	)
	pipe.Expire(ctx, key, r.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}

// EvictExpired scans every cache key and deletes the expired ones.
func (r *RedisRouteCache) EvictExpired(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "route.cache.EvictExpired")(&err)

	if r.RC == nil {
		return 0, errors.New("route cache: redis client is nil")
	}

	now := r.Now()
	var removed int64
	iter := r.RC.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		v, err := r.RC.HGet(ctx, key, "created_at").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return removed, fmt.Errorf("evict route cache: hget %q: %w", key, err)
		}

		createdAt, perr := strconv.ParseInt(v, 10, 64)
		if perr == nil && !r.expired(createdAt, now) {
			continue
		}

		n, err := r.RC.Del(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("evict route cache: delete %q: %w", key, err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("evict route cache: scan: %w", err)
	}

	return removed, nil
}

// Entry returns the stored hash for key (without the prefix) without counting a hit.
func (r *RedisRouteCache) Entry(ctx context.Context, key string) (*ports.CacheEntry, error) {
	fields, err := r.RC.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("get route cache entry key=%q: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	e := ports.CacheEntry{Key: key, Payload: []byte(fields["payload"])}
	if ms, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		e.CreatedAt = time.UnixMilli(ms)
	}
	if n, err := strconv.Atoi(fields["hit_count"]); err == nil {
		e.HitCount = n
	}
	if ms, err := strconv.ParseInt(fields["last_hit_at"], 10, 64); err == nil {
		t := time.UnixMilli(ms)
		e.LastHitAt = &t
	}
	return &e, nil
}
