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

// SQLRouteCache is a Postgres-backed route cache (pgx database/sql driver).
type SQLRouteCache struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSQLRouteCache(db *sql.DB, ttl time.Duration) *SQLRouteCache {
	return &SQLRouteCache{DB: db, TTL: ttlOrDefault(ttl), Now: time.Now}
}

// Fetch a fresh payload and count the hit; stale rows are deleted.
func (s *SQLRouteCache) Get(
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
        last_hit_at = $1
    WHERE cache_key = $2
        AND created_at >= $3
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

	// Either absent or expired; drop the expired row if there is one.
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache WHERE cache_key = $1 AND created_at < $2;`, key, cutoff); err != nil {
		return nil, false, fmt.Errorf("get route cache: delete expired key=%q: %w", key, err)
	}

	return nil, false, nil
}

// Store a payload, replacing any previous entry for the same key.
func (s *SQLRouteCache) Put(
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
    VALUES ($1, $2, $3, 0, NULL)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		created_at = EXCLUDED.created_at,
		hit_count = 0,
		last_hit_at = NULL;
	`, key, payload, s.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}

// Delete all entries older than the TTL.
func (s *SQLRouteCache) EvictExpired(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "route.cache.EvictExpired")(&err)

	if s.DB == nil {
		return 0, errors.New("route cache: db is nil")
	}

	cutoff := s.Now().Add(-s.TTL).UnixMilli()
	res, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache WHERE created_at < $1;`, cutoff)
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
func (s *SQLRouteCache) Entry(ctx context.Context, key string) (*ports.CacheEntry, error) {
	return scanEntry(ctx, s.DB, `
	SELECT
        cache_key,
        payload,
        created_at,
        hit_count,
        last_hit_at
    FROM route_cache
    WHERE cache_key = $1;
	`, key)
}

func scanEntry(ctx context.Context, db *sql.DB, q string, key string) (*ports.CacheEntry, error) {
	if db == nil {
		return nil, errors.New("route cache: db is nil")
	}

	var (
		e         ports.CacheEntry
		createdAt int64
		lastHitAt sql.NullInt64
	)
	err := db.QueryRowContext(ctx, q, key).Scan(&e.Key, &e.Payload, &createdAt, &e.HitCount, &lastHitAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get route cache entry key=%q: %w", key, err)
	}

	e.CreatedAt = time.UnixMilli(createdAt)
	if lastHitAt.Valid {
		t := time.UnixMilli(lastHitAt.Int64)
		e.LastHitAt = &t
	}
	return &e, nil
}
