package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"place-route-service/internal/adapters/cache"
	"place-route-service/internal/adapters/directions"
	"place-route-service/internal/adapters/places"
	"place-route-service/internal/api"
	"place-route-service/internal/config"
	"place-route-service/internal/platform/logger"
	"place-route-service/internal/ports"
	"place-route-service/internal/services"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (Google, TMAP, the route cache backend) behind
// ports and starts the HTTP server.
func main() {
	hadDotEnv := config.LoadDotEnv()
	log := logger.Setup()
	if !hadDotEnv {
		log.Info("no .env file found, using environment variables")
	}

	if err := run(log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Place search cannot work without Google; fail before serving anything.
	google, err := places.NewGooglePlaces(cfg.GoogleMapsAPIKey, cfg.ProviderTimeout)
	if err != nil {
		return err
	}
	searcher := places.NewMemoSearcher(google, cfg.PlaceMemoTTL)

	providers, err := buildProviders(cfg, log)
	if err != nil {
		return err
	}

	routeCache, closeCache, err := cache.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	if routeCache != nil {
		services.StartCacheSweeper(ctx, routeCache, cfg.CacheSweepInterval, log)
	}

	locator := services.NewLocator(searcher, log)
	aggregator := services.NewPlaceAggregator(searcher, log)
	handler := api.NewRouter(api.Deps{
		Locator:     locator,
		Places:      aggregator,
		Recommender: services.NewRecommender(locator, aggregator),
		Router:      services.NewDirectionsRouter(providers, routeCache, services.NewFareEstimator(), log),
	})

	// Write timeout covers a course of several legs, each of which may walk
	// the whole provider chain with transit retries.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "cache_backend", cfg.CacheBackend, "providers", len(providers))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// buildProviders returns the directions fallback chain in order.
// TMAP is optional; Google Directions is always last.
func buildProviders(cfg config.Config, log *slog.Logger) ([]ports.DirectionsProvider, error) {
	var chain []ports.DirectionsProvider

	if cfg.TmapAppKey != "" {
		routes, err := directions.NewTmapRoutes(cfg.TmapAppKey, cfg.ProviderTimeout)
		if err != nil {
			return nil, err
		}
		transit, err := directions.NewTmapTransit(cfg.TmapAppKey, cfg.ProviderTimeout)
		if err != nil {
			return nil, err
		}
		chain = append(chain, routes, transit)
	} else {
		log.Warn("TMAP_APP_KEY not set, routing with Google Directions only")
	}

	google, err := directions.NewGoogleDirections(cfg.GoogleMapsAPIKey, cfg.ProviderTimeout)
	if err != nil {
		return nil, err
	}
	return append(chain, google), nil
}
