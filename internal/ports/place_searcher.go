package ports

import (
	"context"
	"place-route-service/internal/domain"
)

// Place as returned by any place-search provider, before distance annotation.
type NormalizedPlace struct {
	ID       string
	Name     string
	Address  string
	Location domain.Coordinate
	Types    []string
	// Set by text search when Types match one of the query's Categories.
	Category domain.Category
}

type NearbyQuery struct {
	Location     domain.Coordinate
	RadiusMeters float64
	Category     *domain.Category // nil means every type; adapters map it to their own tags
	MaxResults   int
}

type TextQuery struct {
	Text             string
	BiasCenter       domain.Coordinate
	BiasRadiusMeters float64
	MaxResults       int
	PageToken        string
	// Categories label the results by their provider types; empty means every category.
	Categories []domain.Category
}

type PlacePage struct {
	Places        []NormalizedPlace
	NextPageToken string
}

// Contract for coordinate- and text-based place lookups.
type PlaceSearcher interface {
	// Return places within RadiusMeters of Location, restricted to Category when set.
	SearchNearby(ctx context.Context, q NearbyQuery) (PlacePage, error)
	// Return places matching a free-text query, biased toward a circle.
	SearchText(ctx context.Context, q TextQuery) (PlacePage, error)
}
