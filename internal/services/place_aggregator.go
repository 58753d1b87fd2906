package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"place-route-service/internal/domain"
	"place-route-service/internal/geo"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/platform/obs"
	"place-route-service/internal/ports"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRadiusMeters = 500.0
	MaxRadiusMeters     = 50_000.0
	MaxMergedResults    = 100

	// Places API page cap.
	CategoryResultCap = 20

	// The provider only biases toward this circle; it is not a filter.
	BuildingBiasRadiusMeters = 500.0

	// Hard cutoff applied after the provider answers.
	BuildingMaxDistanceMeters = 200.0
	BuildingResultCap         = 6
)

var ErrInvalidRadius = errors.New("invalid search radius")

type SearchRequest struct {
	Location     domain.Coordinate
	RadiusMeters float64
	Category     *domain.Category // nil searches every category
}

type SearchResult struct {
	Places        []domain.Place `json:"places"`
	NextPageToken string         `json:"next_page_token,omitempty"`

	// RadiusFallback is set when a building search found nothing and the
	// places came from a radius search instead.
	RadiusFallback bool `json:"-"`
}

// PlaceAggregator runs category searches against a place provider and
// merges the answers into one distance-ordered list.
type PlaceAggregator struct {
	places ports.PlaceSearcher
	logger *slog.Logger
}

func NewPlaceAggregator(places ports.PlaceSearcher, logger *slog.Logger) *PlaceAggregator {
	return &PlaceAggregator{places: places, logger: logger}
}

func validateSearch(loc domain.Coordinate, radius float64) error {
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("search places: %w", err)
	}
	if radius <= 0 || radius > MaxRadiusMeters {
		return fmt.Errorf("search places: %w: %v m", ErrInvalidRadius, radius)
	}
	return nil
}

// Search returns places around req.Location. Provider failures yield an
// empty result; only invalid input is reported as an error.
func (a *PlaceAggregator) Search(ctx context.Context, req SearchRequest) (_ SearchResult, err error) {
	ctx, done := obs.Start(ctx, "places.Search")
	defer done(&err)

	if err := validateSearch(req.Location, req.RadiusMeters); err != nil {
		return SearchResult{}, err
	}

	if req.Category != nil {
		places, next, err := a.searchCategory(ctx, req.Location, req.RadiusMeters, *req.Category)
		if err != nil {
			a.logCategoryFailure(*req.Category, err)
			return SearchResult{Places: []domain.Place{}}, nil
		}
		return SearchResult{Places: places, NextPageToken: next}, nil
	}

	return SearchResult{Places: a.searchAll(ctx, req.Location, req.RadiusMeters, domain.AllCategories)}, nil
}

// SearchCategories fans out over an explicit category list, as supplied by
// intent analysis. An empty list means every category.
func (a *PlaceAggregator) SearchCategories(
	ctx context.Context,
	loc domain.Coordinate,
	radius float64,
	categories []domain.Category,
) (_ SearchResult, err error) {
	ctx, done := obs.Start(ctx, "places.SearchCategories")
	defer done(&err)

	if err := validateSearch(loc, radius); err != nil {
		return SearchResult{}, err
	}
	if len(categories) == 0 {
		categories = domain.AllCategories
	}
	return SearchResult{Places: a.searchAll(ctx, loc, radius, categories)}, nil
}

func (a *PlaceAggregator) searchCategory(
	ctx context.Context,
	loc domain.Coordinate,
	radius float64,
	category domain.Category,
) ([]domain.Place, string, error) {
	page, err := a.places.SearchNearby(ctx, ports.NearbyQuery{
		Location:     loc,
		RadiusMeters: radius,
		Category:     &category,
		MaxResults:   CategoryResultCap,
	})
	if err != nil {
		return nil, "", fmt.Errorf("search category %s: %w", category, err)
	}

	places := annotate(loc, category, page.Places)
	sortByDistance(places)
	return places, page.NextPageToken, nil
}

// searchAll runs one search per category concurrently. A failed category
// is logged and contributes nothing; it never cancels the others.
func (a *PlaceAggregator) searchAll(
	ctx context.Context,
	loc domain.Coordinate,
	radius float64,
	categories []domain.Category,
) []domain.Place {
	results := make([][]domain.Place, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(categories))

	for i, c := range categories {
		i, c := i, c
		g.Go(func() error {
			places, _, err := a.searchCategory(gctx, loc, radius, c)
			if err != nil {
				a.logCategoryFailure(c, err)
				return nil
			}
			results[i] = places
			return nil
		})
	}
	_ = g.Wait()

	return mergePlaces(results, MaxMergedResults)
}

func (a *PlaceAggregator) logCategoryFailure(c domain.Category, err error) {
	metrics.PlaceSearchFailuresTotal.WithLabelValues(string(c)).Inc()
	a.logger.Warn("category search failed", "category", c, "err", err)
}

// SearchInBuilding looks for places of the given categories inside a named
// building; an empty list means every category. Only a single category adds
// its keyword to the text query. When the text search finds nothing usable
// it falls back to a radius search over the same categories around loc with
// fallbackRadius, or DefaultRadiusMeters when that is zero.
func (a *PlaceAggregator) SearchInBuilding(
	ctx context.Context,
	loc domain.Coordinate,
	building string,
	categories []domain.Category,
	fallbackRadius float64,
) (_ SearchResult, err error) {
	ctx, done := obs.Start(ctx, "places.SearchInBuilding",
		attribute.String("building", building),
	)
	defer done(&err)

	if fallbackRadius == 0 {
		fallbackRadius = DefaultRadiusMeters
	}
	if err := validateSearch(loc, fallbackRadius); err != nil {
		return SearchResult{}, err
	}

	// With one category every hit is labelled with it; otherwise the
	// provider labels each place from its types.
	var single *domain.Category
	if len(categories) == 1 {
		single = &categories[0]
	}

	text := strings.TrimSpace(building)
	if single != nil {
		text = strings.TrimSpace(text + " " + single.Keyword())
	}

	var cat domain.Category
	if single != nil {
		cat = *single
	}

	var places []domain.Place
	if text != "" {
		page, err := a.places.SearchText(ctx, ports.TextQuery{
			Text:             text,
			BiasCenter:       loc,
			BiasRadiusMeters: BuildingBiasRadiusMeters,
			MaxResults:       CategoryResultCap,
			Categories:       categories,
		})
		if err != nil {
			a.logger.Warn("building search failed", "building", building, "err", err)
		} else {
			places = withinDistance(annotate(loc, cat, page.Places), BuildingMaxDistanceMeters)
		}
	}

	if len(places) == 0 {
		a.logger.Debug("building search empty, falling back to radius", "building", building)

		var res SearchResult
		if single != nil {
			res, err = a.Search(ctx, SearchRequest{Location: loc, RadiusMeters: fallbackRadius, Category: single})
		} else {
			res, err = a.SearchCategories(ctx, loc, fallbackRadius, categories)
		}
		if err != nil {
			return SearchResult{}, err
		}
		res.RadiusFallback = true
		return res, nil
	}

	sortByDistance(places)
	if len(places) > BuildingResultCap {
		places = places[:BuildingResultCap]
	}
	return SearchResult{Places: places}, nil
}

// annotate converts provider places and measures their distance from loc.
// A zero category keeps whatever category the provider assigned.
func annotate(loc domain.Coordinate, category domain.Category, in []ports.NormalizedPlace) []domain.Place {
	out := make([]domain.Place, 0, len(in))
	for _, p := range in {
		c := category
		if c == "" {
			c = p.Category
		}
		out = append(out, domain.Place{
			ID:             p.ID,
			Name:           p.Name,
			Category:       c,
			Address:        p.Address,
			Location:       p.Location,
			DistanceMeters: geo.Distance(loc, p.Location),
			Types:          p.Types,
		})
	}
	return out
}

func withinDistance(places []domain.Place, maxMeters float64) []domain.Place {
	out := places[:0]
	for _, p := range places {
		if p.DistanceMeters <= maxMeters {
			out = append(out, p)
		}
	}
	return out
}

// mergePlaces flattens per-category results in order and keeps one copy per
// Place.Key, the nearer one when the same place is seen twice.
func mergePlaces(groups [][]domain.Place, limit int) []domain.Place {
	index := make(map[string]int)
	merged := make([]domain.Place, 0)

	for _, group := range groups {
		for _, p := range group {
			k := p.Key()
			if i, ok := index[k]; ok {
				if p.DistanceMeters < merged[i].DistanceMeters {
					merged[i] = p
				}
				continue
			}
			index[k] = len(merged)
			merged = append(merged, p)
		}
	}

	sortByDistance(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func sortByDistance(places []domain.Place) {
	sort.SliceStable(places, func(i, j int) bool {
		return places[i].DistanceMeters < places[j].DistanceMeters
	})
}
