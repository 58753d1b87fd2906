package cache

import (
	"place-route-service/internal/domain"
	"place-route-service/internal/geo"
	"time"
)

// DefaultTTL is the route cache expiry window.
const DefaultTTL = 30 * 24 * time.Hour

// RouteKey joins the quantized endpoints and the mode, e.g.
// "37.5665,126.9780|37.5133,127.1028|transit".
func RouteKey(origin, destination domain.Coordinate, mode domain.TravelMode) string {
	return geo.QuantizeKey(origin) + "|" + geo.QuantizeKey(destination) + "|" + string(mode)
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
