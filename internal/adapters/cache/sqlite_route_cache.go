package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/obs"
	"place-route-service/internal/ports"
	"time"
)

// SQLite backed route cache. Same table layout as SQLRouteCache,
// with "?" placeholders for the sqlite driver.
type SqliteRouteCache struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSqliteRouteCache(db *sql.DB, ttl time.Duration) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db, TTL: ttlOrDefault(ttl), Now: time.Now}
}

func (s *SqliteRouteCache) Get(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
	mode domain.TravelMode,
) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("route cache: db is nil")
	}

	key := RouteKey(origin, destination, mode)
	now := s.Now()
	cutoff := now.Add(-s.TTL).UnixMilli()

	q := `
	UPDATE route_cache
    SET hit_count = hit_count + 1,
        last_hit_at = ?
    WHERE cache_key = ?
        AND created_at >= ?
    RETURNING payload;
	`

	var payload []byte
	err = s.DB.QueryRowContext(ctx, q, now.UnixMilli(), key, cutoff).Scan(&payload)
	if err == nil {
		return payload, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("get route cache: update route_cache table: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache WHERE cache_key = ? AND created_at < ?;`, key, cutoff); err != nil {
		return nil, false, fmt.Errorf("get route cache: delete expired key=%q: %w", key, err)
	}

	return nil, false, nil
}

func (s *SqliteRouteCache) Put(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
	mode domain.TravelMode,
	payload []byte,
) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if len(payload) == 0 {
		return errors.New("insert route cache: payload must not be empty")
	}

	key := RouteKey(origin, destination, mode)

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO route_cache (
        cache_key,
        payload,
        created_at,
        hit_count,
        last_hit_at
    )
    VALUES (?, ?, ?, 0, NULL)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = excluded.payload,
		created_at = excluded.created_at,
		hit_count = 0,
		last_hit_at = NULL;
	`, key, payload, s.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}

func (s *SqliteRouteCache) EvictExpired(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "route.cache.EvictExpired")(&err)

	if s.DB == nil {
		return 0, errors.New("route cache: db is nil")
	}

	cutoff := s.Now().Add(-s.TTL).UnixMilli()
	res, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache WHERE created_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evict route cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("evict route cache: rows affected: %w", err)
	}
	return n, nil
}

// Entry returns the stored row for key without counting a hit.
func (s *SqliteRouteCache) Entry(ctx context.Context, key string) (*ports.CacheEntry, error) {
	return scanEntry(ctx, s.DB, `
	SELECT
        cache_key,
        payload,
        created_at,
        hit_count,
        last_hit_at
    FROM route_cache
    WHERE cache_key = ?;
	`, key)
}
