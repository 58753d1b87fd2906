package services

import (
	"context"
	"fmt"
	"log/slog"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/ports"
	"time"
)

// SweepRouteCache deletes expired route cache entries once.
func SweepRouteCache(ctx context.Context, cache ports.RouteCache) (int64, error) {
	n, err := cache.EvictExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep route cache: %w", err)
	}
	metrics.RouteCacheEvictedTotal.Add(float64(n))
	return n, nil
}

// StartCacheSweeper sweeps every interval until ctx is cancelled.
// The returned channel is closed when the sweeper has stopped.
func StartCacheSweeper(
	ctx context.Context,
	cache ports.RouteCache,
	interval time.Duration,
	logger *slog.Logger,
) <-chan struct{} {
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := SweepRouteCache(ctx, cache)
				if err != nil {
					logger.Warn("route cache sweep failed", "err", err)
					continue
				}
				logger.Info("route cache swept", "evicted", n)
			}
		}
	}()

	return stopped
}
