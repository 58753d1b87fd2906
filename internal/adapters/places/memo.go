package places

import (
	"context"
	"fmt"
	"place-route-service/internal/geo"
	"place-route-service/internal/ports"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoSearcher remembers successful searches for a short time, keyed by the
// quantized query point. The locator and the aggregator often ask about the
// same spot within seconds of each other.
type MemoSearcher struct {
	next  ports.PlaceSearcher
	cache *cache.Cache
}

func NewMemoSearcher(next ports.PlaceSearcher, ttl time.Duration) *MemoSearcher {
	return &MemoSearcher{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (m *MemoSearcher) SearchNearby(ctx context.Context, q ports.NearbyQuery) (ports.PlacePage, error) {
	category := ""
	if q.Category != nil {
		category = string(*q.Category)
	}
	key := fmt.Sprintf("nearby|%s|%.0f|%s|%d", geo.QuantizeKey(q.Location), q.RadiusMeters, category, q.MaxResults)

	if v, ok := m.cache.Get(key); ok {
		return v.(ports.PlacePage), nil
	}

	page, err := m.next.SearchNearby(ctx, q)
	if err != nil {
		return ports.PlacePage{}, err
	}
	m.cache.Set(key, page, cache.DefaultExpiration)
	return page, nil
}

func (m *MemoSearcher) SearchText(ctx context.Context, q ports.TextQuery) (ports.PlacePage, error) {
	key := fmt.Sprintf("text|%s|%s|%.0f|%d|%s|%v", q.Text, geo.QuantizeKey(q.BiasCenter), q.BiasRadiusMeters, q.MaxResults, q.PageToken, q.Categories)

	if v, ok := m.cache.Get(key); ok {
		return v.(ports.PlacePage), nil
	}

	page, err := m.next.SearchText(ctx, q)
	if err != nil {
		return ports.PlacePage{}, err
	}
	m.cache.Set(key, page, cache.DefaultExpiration)
	return page, nil
}
