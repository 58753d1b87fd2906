package directions

import (
	"fmt"
	"place-route-service/internal/domain"
	"place-route-service/internal/ports"
	"strconv"
	"strings"
)

const tmapBaseURL = "https://apis.openapi.sk.com"

// tmapResultError is the body TMAP sends instead of a route, e.g. when the
// points are too close together or outside the service area.
type tmapResultError struct {
	Result *struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"result"`
}

func (e tmapResultError) err() error {
	if e.Result == nil {
		return nil
	}
	return fmt.Errorf("tmap status %d %q: %w", e.Result.Status, e.Result.Message, ports.ErrNoRoute)
}

// parseLineString reads TMAP's "lng,lat lng,lat ..." shape strings.
func parseLineString(s string) ([]domain.Coordinate, error) {
	fields := strings.Fields(s)
	out := make([]domain.Coordinate, 0, len(fields))
	for _, f := range fields {
		lngStr, latStr, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("parse linestring point %q: %w", f, ports.ErrMalformedResponse)
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse linestring lng %q: %w", lngStr, ports.ErrMalformedResponse)
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse linestring lat %q: %w", latStr, ports.ErrMalformedResponse)
		}
		out = append(out, domain.Coordinate{Lat: lat, Lng: lng})
	}
	return out, nil
}

// appendPath joins path segments, dropping the repeated point where one
// segment starts exactly where the previous ended.
func appendPath(path, seg []domain.Coordinate) []domain.Coordinate {
	if len(path) > 0 && len(seg) > 0 && path[len(path)-1] == seg[0] {
		seg = seg[1:]
	}
	return append(path, seg...)
}

func fromGeoJSON(pt []float64) (domain.Coordinate, error) {
	if len(pt) < 2 {
		return domain.Coordinate{}, fmt.Errorf("geojson position %v: %w", pt, ports.ErrMalformedResponse)
	}
	return domain.Coordinate{Lat: pt[1], Lng: pt[0]}, nil
}
