package services

import (
	"context"
	"fmt"
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/obs"
)

type Scope string

const (
	ScopeBuilding Scope = "building"
	ScopeRadius   Scope = "radius"
)

type RecommendRequest struct {
	Location     domain.Coordinate
	Signal       domain.IndoorSignal
	Categories   []domain.Category
	RadiusMeters float64
}

type Recommendation struct {
	Location domain.LocationClassification `json:"location"`
	Scope    Scope                         `json:"scope"`
	Places   []domain.Place                `json:"places"`
}

// Recommender ties classification to search: indoors the search is scoped
// to the detected building, outdoors it covers a radius.
type Recommender struct {
	locator *Locator
	places  *PlaceAggregator
}

func NewRecommender(locator *Locator, places *PlaceAggregator) *Recommender {
	return &Recommender{locator: locator, places: places}
}

func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) (_ Recommendation, err error) {
	ctx, done := obs.Start(ctx, "recommend.Recommend")
	defer done(&err)

	if err := req.Location.Validate(); err != nil {
		return Recommendation{}, fmt.Errorf("recommend: %w", err)
	}
	radius := req.RadiusMeters
	if radius == 0 {
		radius = DefaultRadiusMeters
	}

	loc := r.locator.Classify(ctx, req.Location, req.Signal)

	if loc.Indoor && loc.BuildingName != nil {
		res, err := r.places.SearchInBuilding(ctx, req.Location, *loc.BuildingName, req.Categories, radius)
		if err != nil {
			return Recommendation{}, fmt.Errorf("recommend: %w", err)
		}
		scope := ScopeBuilding
		if res.RadiusFallback {
			scope = ScopeRadius
		}
		return Recommendation{Location: loc, Scope: scope, Places: res.Places}, nil
	}

	var res SearchResult
	if len(req.Categories) == 1 {
		res, err = r.places.Search(ctx, SearchRequest{Location: req.Location, RadiusMeters: radius, Category: &req.Categories[0]})
	} else {
		res, err = r.places.SearchCategories(ctx, req.Location, radius, req.Categories)
	}
	if err != nil {
		return Recommendation{}, fmt.Errorf("recommend: %w", err)
	}

	return Recommendation{Location: loc, Scope: ScopeRadius, Places: res.Places}, nil
}
