package services

import (
	"context"
	"log/slog"
	"place-route-service/internal/domain"
	"place-route-service/internal/geo"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/ports"
	"strconv"
	"strings"
)

const (
	// A fix this precise only happens under open sky.
	PreciseAccuracyMeters = 15.0

	// Indoor fixes degrade past this accuracy.
	NoisyAccuracyMeters = 30.0

	LocatorRadiusMeters = 30.0
	MinDensityPlaces    = 2
	MinStaySeconds      = 180
	NearStayMeters      = 20.0
	NearMeters          = 10.0
)

var nonBuildingTypes = map[string]struct{}{
	"route":          {},
	"street_address": {},
	"street_number":  {},
	"locality":       {},
	"political":      {},
	"premise":        {},
	"country":        {},
	"postal_code":    {},
}

var nonBuildingPrefixes = []string{"sublocality", "administrative_area_level_"}

// Locator decides whether a device is inside a building from its GPS
// accuracy, how long it has stayed put and how dense the surrounding
// places are.
type Locator struct {
	places ports.PlaceSearcher
	logger *slog.Logger
}

func NewLocator(places ports.PlaceSearcher, logger *slog.Logger) *Locator {
	return &Locator{places: places, logger: logger}
}

// Classify never fails: provider errors resolve to outdoor with no building.
func (l *Locator) Classify(
	ctx context.Context,
	coord domain.Coordinate,
	signal domain.IndoorSignal,
) domain.LocationClassification {
	accuracy, hasAccuracy := 0.0, signal.GPSAccuracyMeters != nil
	if hasAccuracy {
		accuracy = *signal.GPSAccuracyMeters
	}
	stay := 0
	if signal.StayingDurationSeconds != nil {
		stay = *signal.StayingDurationSeconds
	}

	if hasAccuracy && accuracy < PreciseAccuracyMeters {
		return l.outdoor("precise_gps", "")
	}

	page, err := l.places.SearchNearby(ctx, ports.NearbyQuery{
		Location:     coord,
		RadiusMeters: LocatorRadiusMeters,
	})
	if err != nil {
		l.logger.Warn("locator place search failed", "coord", coord.String(), "err", err)
		return l.outdoor("provider_error", "")
	}

	density := make([]ports.NormalizedPlace, 0, len(page.Places))
	for _, p := range page.Places {
		if isBuilding(p.Types) {
			density = append(density, p)
		}
	}
	if len(density) == 0 {
		return l.outdoor("no_places", "")
	}

	nearest, nearestDist := density[0], geo.Distance(coord, density[0].Location)
	for _, p := range density[1:] {
		if d := geo.Distance(coord, p.Location); d < nearestDist {
			nearest, nearestDist = p, d
		}
	}

	if hasAccuracy && accuracy > NoisyAccuracyMeters && len(density) >= MinDensityPlaces && stay >= MinStaySeconds {
		return l.indoor("dense_noisy_stay", nearest)
	}
	if (nearestDist <= NearStayMeters && stay >= MinStaySeconds) || nearestDist <= NearMeters {
		return l.indoor("nearest_place", nearest)
	}
	return l.outdoor("too_far", nearest.Address)
}

func (l *Locator) indoor(rule string, building ports.NormalizedPlace) domain.LocationClassification {
	metrics.IndoorClassificationsTotal.WithLabelValues(strconv.FormatBool(true), rule).Inc()
	name := building.Name
	return domain.LocationClassification{
		Indoor:       true,
		BuildingName: &name,
		Address:      building.Address,
	}
}

func (l *Locator) outdoor(rule, address string) domain.LocationClassification {
	metrics.IndoorClassificationsTotal.WithLabelValues(strconv.FormatBool(false), rule).Inc()
	return domain.LocationClassification{Address: address}
}

// isBuilding keeps places with no type tags; only a tag set made up
// entirely of road and region classes is dropped.
func isBuilding(types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if !isNonBuildingType(t) {
			return true
		}
	}
	return false
}

func isNonBuildingType(t string) bool {
	if _, ok := nonBuildingTypes[t]; ok {
		return true
	}
	for _, prefix := range nonBuildingPrefixes {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}
