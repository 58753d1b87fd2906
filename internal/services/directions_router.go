package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"place-route-service/internal/domain"
	"place-route-service/internal/geo"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/platform/obs"
	"place-route-service/internal/ports"

	"go.opentelemetry.io/otel/attribute"
)

// Course legs up to this straight-line length are walked when the caller
// does not pick a mode.
const AutoWalkMaxMeters = 800.0

const estimateProvider = "estimate"

// Assumed average speeds for the local estimate, km/h.
var estimateSpeedsKmh = map[domain.TravelMode]float64{
	domain.ModeWalking: 4,
	domain.ModeDriving: 30,
	domain.ModeTransit: 20,
}

// DirectionsRouter resolves legs through an ordered provider chain,
// consulting the route cache first and falling back to a straight-line
// estimate when every provider fails.
type DirectionsRouter struct {
	providers []ports.DirectionsProvider
	cache     ports.RouteCache
	fares     *FareEstimator
	logger    *slog.Logger
}

// NewDirectionsRouter builds a router. cache may be nil to disable caching.
func NewDirectionsRouter(
	providers []ports.DirectionsProvider,
	cache ports.RouteCache,
	fares *FareEstimator,
	logger *slog.Logger,
) *DirectionsRouter {
	if fares == nil {
		fares = NewFareEstimator()
	}
	return &DirectionsRouter{
		providers: providers,
		cache:     cache,
		fares:     fares,
		logger:    logger,
	}
}

// AutoMode picks walking for short hops and transit otherwise.
func AutoMode(from, to domain.Coordinate) domain.TravelMode {
	if geo.Distance(from, to) <= AutoWalkMaxMeters {
		return domain.ModeWalking
	}
	return domain.ModeTransit
}

// Route always returns a leg. Provider and cache failures degrade to the
// next source and finally to the local estimate.
func (r *DirectionsRouter) Route(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
	mode domain.TravelMode,
) domain.RouteLeg {
	ctx, done := obs.Start(ctx, "router.Route",
		attribute.String("mode", string(mode)),
	)
	defer done(nil)

	if route, ok := r.fromCache(ctx, origin, destination, mode); ok {
		return r.toLeg(origin, destination, mode, route)
	}

	req := ports.RouteRequest{Origin: origin, Destination: destination, Mode: mode}
	for _, p := range r.providers {
		if !p.Supports(mode) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		route, perr := p.Route(ctx, req)
		if perr != nil {
			if errors.Is(perr, ports.ErrNoRoute) {
				r.logger.Info("provider has no route", "provider", p.Name(), "mode", mode)
			} else {
				r.logger.Warn("provider failed", "provider", p.Name(), "mode", mode, "err", perr)
			}
			continue
		}
		if route.DistanceMeters <= 0 && route.DurationSeconds <= 0 {
			r.logger.Info("provider returned an empty route", "provider", p.Name(), "mode", mode)
			continue
		}
		if route.Provider == "" {
			route.Provider = p.Name()
		}

		r.store(ctx, origin, destination, mode, route)
		return r.toLeg(origin, destination, mode, route)
	}

	return r.estimate(origin, destination, mode)
}

// CourseRoute routes consecutive stops, starting from start when given.
// modes[i] applies to leg i; a missing or empty entry selects AutoMode.
func (r *DirectionsRouter) CourseRoute(
	ctx context.Context,
	stops []domain.Coordinate,
	start *domain.Coordinate,
	modes []domain.TravelMode,
) domain.Itinerary {
	points := make([]domain.Coordinate, 0, len(stops)+1)
	if start != nil {
		points = append(points, *start)
	}
	points = append(points, stops...)

	it := domain.Itinerary{Legs: []domain.RouteLeg{}}
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]

		mode := domain.TravelMode("")
		if i < len(modes) {
			mode = modes[i]
		}
		if mode == "" {
			mode = AutoMode(from, to)
		}

		it.Legs = append(it.Legs, r.Route(ctx, from, to, mode))
	}
	return it
}

func (r *DirectionsRouter) fromCache(
	ctx context.Context,
	origin, destination domain.Coordinate,
	mode domain.TravelMode,
) (ports.NormalizedRoute, bool) {
	if r.cache == nil {
		return ports.NormalizedRoute{}, false
	}

	payload, ok, err := r.cache.Get(ctx, origin, destination, mode)
	if err != nil {
		metrics.RouteCacheLookupsTotal.WithLabelValues("error").Inc()
		r.logger.Warn("route cache read failed", "err", err)
		return ports.NormalizedRoute{}, false
	}
	if !ok {
		metrics.RouteCacheLookupsTotal.WithLabelValues("miss").Inc()
		return ports.NormalizedRoute{}, false
	}

	var route ports.NormalizedRoute
	if err := json.Unmarshal(payload, &route); err != nil {
		metrics.RouteCacheLookupsTotal.WithLabelValues("error").Inc()
		r.logger.Warn("route cache payload undecodable", "err", err)
		return ports.NormalizedRoute{}, false
	}

	metrics.RouteCacheLookupsTotal.WithLabelValues("hit").Inc()
	return route, true
}

func (r *DirectionsRouter) store(
	ctx context.Context,
	origin, destination domain.Coordinate,
	mode domain.TravelMode,
	route ports.NormalizedRoute,
) {
	if r.cache == nil {
		return
	}

	payload, err := json.Marshal(route)
	if err != nil {
		r.logger.Warn("route cache encode failed", "err", err)
		return
	}
	if err := r.cache.Put(ctx, origin, destination, mode, payload); err != nil {
		r.logger.Warn("route cache write failed", "err", err)
	}
}

func (r *DirectionsRouter) toLeg(
	origin, destination domain.Coordinate,
	mode domain.TravelMode,
	route ports.NormalizedRoute,
) domain.RouteLeg {
	leg := domain.RouteLeg{
		From:            origin,
		To:              destination,
		Mode:            mode,
		DistanceMeters:  max(route.DistanceMeters, 0),
		DurationSeconds: max(route.DurationSeconds, 0),
		FareSource:      domain.FareSourceNone,
		Polyline:        route.Polyline,
		Provider:        route.Provider,
	}

	switch {
	case route.Fare != nil && route.Fare.Value >= 0:
		v := route.Fare.Value
		leg.Fare = &v
		leg.FareSource = domain.FareSourceProvider
	case mode == domain.ModeTransit:
		if f := r.fares.Estimate(route.Segments, leg.DistanceMeters); f != nil {
			v := f.Value
			leg.Fare = &v
			leg.FareSource = domain.FareSourceEstimated
		}
	}

	return leg
}

func (r *DirectionsRouter) estimate(origin, destination domain.Coordinate, mode domain.TravelMode) domain.RouteLeg {
	metrics.RouteEstimatesTotal.WithLabelValues(string(mode)).Inc()
	r.logger.Info("all providers failed, estimating leg", "mode", mode)

	return EstimateLeg(origin, destination, mode)
}

// EstimateLeg derives a leg from straight-line distance and the mode's
// assumed speed. It has no fare and no polyline.
func EstimateLeg(origin, destination domain.Coordinate, mode domain.TravelMode) domain.RouteLeg {
	meters := geo.Distance(origin, destination)

	speed, ok := estimateSpeedsKmh[mode]
	if !ok {
		speed = estimateSpeedsKmh[domain.ModeWalking]
	}
	metersPerSecond := speed * 1000 / 3600

	return domain.RouteLeg{
		From:            origin,
		To:              destination,
		Mode:            mode,
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(meters / metersPerSecond)),
		FareSource:      domain.FareSourceNone,
		Provider:        estimateProvider,
	}
}
