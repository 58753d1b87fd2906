package services

import (
	"context"
	"errors"
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/logger"
	"place-route-service/internal/ports"
	"sync"
	"testing"
	"time"
)

func newRecommender(s ports.PlaceSearcher) *Recommender {
	log := logger.Discard()
	return NewRecommender(NewLocator(s, log), NewPlaceAggregator(s, log))
}

func TestRecommendIndoorUsesBuildingScope(t *testing.T) {
	var textQuery string
	s := &fakeSearcher{
		nearby: func(q ports.NearbyQuery) (ports.PlacePage, error) {
			return ports.PlacePage{Places: []ports.NormalizedPlace{placeAt("스타필드 코엑스몰", 5, "shopping_mall")}}, nil
		},
		text: func(q ports.TextQuery) (ports.PlacePage, error) {
			textQuery = q.Text
			return ports.PlacePage{Places: []ports.NormalizedPlace{placeAt("blue bottle", 60, "cafe")}}, nil
		},
	}

	rec, err := newRecommender(s).Recommend(context.Background(), RecommendRequest{
		Location:   origin,
		Categories: []domain.Category{domain.CategoryCafe},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !rec.Location.Indoor || rec.Scope != ScopeBuilding {
		t.Fatalf("recommendation = %+v, want building scope", rec)
	}
	if textQuery != "스타필드 코엑스몰 카페" {
		t.Fatalf("text query = %q", textQuery)
	}
	if len(rec.Places) != 1 || rec.Places[0].Name != "blue bottle" {
		t.Fatalf("places = %v", names(rec.Places))
	}
}

func TestRecommendIndoorFallbackSearchesRequestedCategories(t *testing.T) {
	var (
		mu       sync.Mutex
		searched []domain.Category
	)
	s := &fakeSearcher{
		nearby: func(q ports.NearbyQuery) (ports.PlacePage, error) {
			if q.Category == nil {
				return ports.PlacePage{Places: []ports.NormalizedPlace{placeAt("스타필드 코엑스몰", 5, "shopping_mall")}}, nil
			}
			mu.Lock()
			searched = append(searched, *q.Category)
			mu.Unlock()
			return ports.PlacePage{Places: []ports.NormalizedPlace{placeAt(string(*q.Category), 120)}}, nil
		},
	}

	rec, err := newRecommender(s).Recommend(context.Background(), RecommendRequest{
		Location:   origin,
		Categories: []domain.Category{domain.CategoryMart, domain.CategoryPharmacy},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !rec.Location.Indoor {
		t.Fatalf("location = %+v, want indoor", rec.Location)
	}
	if rec.Scope != ScopeRadius {
		t.Fatalf("scope = %q, want radius after an empty building search", rec.Scope)
	}
	if len(searched) != 2 {
		t.Fatalf("fallback searched %v, want mart and pharmacy only", searched)
	}
	if len(rec.Places) != 2 {
		t.Fatalf("places = %v", names(rec.Places))
	}
}

func TestRecommendOutdoorSearchesRadius(t *testing.T) {
	var (
		mu         sync.Mutex
		categories []domain.Category
	)
	s := &fakeSearcher{nearby: func(q ports.NearbyQuery) (ports.PlacePage, error) {
		if q.Category == nil {
			return ports.PlacePage{}, nil
		}
		mu.Lock()
		categories = append(categories, *q.Category)
		mu.Unlock()
		return ports.PlacePage{Places: []ports.NormalizedPlace{placeAt(string(*q.Category), 100)}}, nil
	}}

	acc := 5.0
	rec, err := newRecommender(s).Recommend(context.Background(), RecommendRequest{
		Location:   origin,
		Signal:     domain.IndoorSignal{GPSAccuracyMeters: &acc},
		Categories: []domain.Category{domain.CategoryMart, domain.CategoryPharmacy},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Location.Indoor || rec.Scope != ScopeRadius {
		t.Fatalf("recommendation = %+v, want radius scope", rec)
	}
	if len(categories) != 2 || len(rec.Places) != 2 {
		t.Fatalf("categories = %v places = %v", categories, names(rec.Places))
	}
}

func TestRecommendRejectsInvalidLocation(t *testing.T) {
	_, err := newRecommender(&fakeSearcher{}).Recommend(context.Background(), RecommendRequest{
		Location: domain.Coordinate{Lat: 10, Lng: 200},
	})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("err = %v, want ErrInvalidCoordinate", err)
	}
}

func TestSweepRouteCache(t *testing.T) {
	c := newMemCache()
	c.evictN = 3
	n, err := SweepRouteCache(context.Background(), c)
	if err != nil || n != 3 {
		t.Fatalf("n = %d err = %v", n, err)
	}

	c.evictErr = errors.New("boom")
	if _, err := SweepRouteCache(context.Background(), c); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartCacheSweeperStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := StartCacheSweeper(ctx, newMemCache(), time.Millisecond, logger.Discard())

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
