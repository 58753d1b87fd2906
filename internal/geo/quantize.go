package geo

import "place-route-service/internal/domain"

// QuantizeKey formats c at domain.KeyPrecision (~11 m cells) as "lat,lng".
// Route cache keys and the place-search memo share it with Place.Key.
func QuantizeKey(c domain.Coordinate) string {
	return c.Key()
}
