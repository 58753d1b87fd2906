package services

import (
	"context"
	"errors"
	"math"
	"place-route-service/internal/adapters/cache"
	"place-route-service/internal/domain"
	"place-route-service/internal/ports"
	"sync"
)

var errProviderDown = errors.New("provider down")

const metersPerDegreeLat = 6371000 * math.Pi / 180

// offset moves c by the given metres north and east.
func offset(c domain.Coordinate, north, east float64) domain.Coordinate {
	return domain.Coordinate{
		Lat: c.Lat + north/metersPerDegreeLat,
		Lng: c.Lng + east/(metersPerDegreeLat*math.Cos(c.Lat*math.Pi/180)),
	}
}

var origin = domain.Coordinate{Lat: 37.5665, Lng: 126.9780}

type fakeSearcher struct {
	mu         sync.Mutex
	nearby     func(q ports.NearbyQuery) (ports.PlacePage, error)
	text       func(q ports.TextQuery) (ports.PlacePage, error)
	nearbyHits int
	textHits   int
}

func (f *fakeSearcher) SearchNearby(ctx context.Context, q ports.NearbyQuery) (ports.PlacePage, error) {
	f.mu.Lock()
	f.nearbyHits++
	f.mu.Unlock()
	if f.nearby == nil {
		return ports.PlacePage{}, nil
	}
	return f.nearby(q)
}

func (f *fakeSearcher) SearchText(ctx context.Context, q ports.TextQuery) (ports.PlacePage, error) {
	f.mu.Lock()
	f.textHits++
	f.mu.Unlock()
	if f.text == nil {
		return ports.PlacePage{}, nil
	}
	return f.text(q)
}

type fakeProvider struct {
	name  string
	modes []domain.TravelMode
	route ports.NormalizedRoute
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Supports(mode domain.TravelMode) bool {
	for _, m := range f.modes {
		if m == mode {
			return true
		}
	}
	return false
}

func (f *fakeProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.NormalizedRoute, error) {
	f.calls++
	if f.err != nil {
		return ports.NormalizedRoute{}, f.err
	}
	return f.route, nil
}

// memCache is an in-memory ports.RouteCache keyed like the real backends.
type memCache struct {
	entries  map[string][]byte
	getErr   error
	putErr   error
	gets     int
	puts     int
	evictN   int64
	evictErr error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) Get(ctx context.Context, o, d domain.Coordinate, mode domain.TravelMode) ([]byte, bool, error) {
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	p, ok := m.entries[cache.RouteKey(o, d, mode)]
	return p, ok, nil
}

func (m *memCache) Put(ctx context.Context, o, d domain.Coordinate, mode domain.TravelMode, payload []byte) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[cache.RouteKey(o, d, mode)] = payload
	return nil
}

func (m *memCache) EvictExpired(ctx context.Context) (int64, error) {
	return m.evictN, m.evictErr
}
