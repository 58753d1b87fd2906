package domain

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// KeyPrecision is the number of decimal digits kept in coordinate keys (~11 m cells).
// Route cache keys and place deduplication both go through Key.
const KeyPrecision = 4

// Immutable WGS-84 coordinate in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects latitudes outside [-90, 90] and longitudes outside [-180, 180].
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Round returns c with both axes rounded to digits decimal places.
func (c Coordinate) Round(digits int) Coordinate {
	scale := math.Pow(10, float64(digits))
	return Coordinate{
		Lat: math.Round(c.Lat*scale) / scale,
		Lng: math.Round(c.Lng*scale) / scale,
	}
}

// Key formats c at KeyPrecision as "lat,lng".
func (c Coordinate) Key() string {
	q := c.Round(KeyPrecision)
	// Adding 0 folds -0 into 0 so both print the same.
	return fmt.Sprintf("%.*f,%.*f", KeyPrecision, q.Lat+0, KeyPrecision, q.Lng+0)
}
