package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"place-route-service/internal/adapters/cache"
	"place-route-service/internal/config"
	"place-route-service/internal/platform/logger"
	"place-route-service/internal/services"
	"time"
)

// dbtool prepares the route cache store and can run one expiry sweep.
func main() {
	sweep := flag.Bool("sweep", false, "delete expired route cache entries and exit")
	flag.Parse()

	hadDotEnv := config.LoadDotEnv()
	log := logger.Setup()
	if !hadDotEnv {
		log.Info("no .env file found, using environment variables")
	}

	if err := run(log, *sweep); err != nil {
		log.Error("dbtool failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, sweep bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.CacheBackend == config.CacheBackendNone {
		log.Info("CACHE_BACKEND=none, nothing to do")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info("initializing route cache", "backend", cfg.CacheBackend)
	routeCache, closeCache, err := cache.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	log.Info("route cache ready")

	if !sweep {
		return nil
	}

	n, err := services.SweepRouteCache(ctx, routeCache)
	if err != nil {
		return err
	}
	log.Info("sweep complete", "evicted", n)
	return nil
}
