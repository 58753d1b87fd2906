package cache

import (
	"context"
	"fmt"
	"place-route-service/internal/config"
	"place-route-service/internal/platform/db"
	"place-route-service/internal/ports"
)

// Open builds the route cache selected by cfg.CacheBackend. SQL backends get
// their schema created. The returned close func releases the connection; for
// CacheBackendNone the cache is nil.
func Open(ctx context.Context, cfg config.Config) (ports.RouteCache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.CacheBackend {
	case config.CacheBackendNone:
		return nil, noop, nil

	case config.CacheBackendPostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open route cache: %w", err)
		}
		if err := db.InitSchema(conn, db.DialectPostgres); err != nil {
			conn.Close()
			return nil, noop, fmt.Errorf("open route cache: %w", err)
		}
		return NewSQLRouteCache(conn, cfg.RouteCacheTTL), conn.Close, nil

	case config.CacheBackendSqlite:
		conn, err := db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open route cache: %w", err)
		}
		if err := db.InitSchema(conn, db.DialectSqlite); err != nil {
			conn.Close()
			return nil, noop, fmt.Errorf("open route cache: %w", err)
		}
		return NewSqliteRouteCache(conn, cfg.RouteCacheTTL), conn.Close, nil

	case config.CacheBackendRedis:
		rc, err := db.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, noop, fmt.Errorf("open route cache: %w", err)
		}
		return NewRedisRouteCache(rc, cfg.RouteCacheTTL), rc.Close, nil
	}

	return nil, noop, fmt.Errorf("open route cache: unknown backend %q", cfg.CacheBackend)
}
