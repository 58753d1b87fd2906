package ports

import (
	"context"
	"place-route-service/internal/domain"
	"time"
)

// One persisted route lookup.
type CacheEntry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
	HitCount  int
	LastHitAt *time.Time
}

// Contract for the persisted memo of provider route responses.
// Keys are derived from quantized endpoints and the travel mode.
type RouteCache interface {
	// Return the payload and true on a fresh hit. Expired entries are deleted and reported as a miss.
	Get(ctx context.Context, origin, destination domain.Coordinate, mode domain.TravelMode) ([]byte, bool, error)
	// Upsert the payload, resetting created_at and hit_count.
	Put(ctx context.Context, origin, destination domain.Coordinate, mode domain.TravelMode, payload []byte) error
	// Delete every entry past the expiry window and return how many were removed.
	EvictExpired(ctx context.Context) (int64, error)
}
